package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Provider names a connected third-party platform
type Provider string

const (
	ProviderInstagram Provider = "instagram"
)

// Credential is the stored link between an application owner and a remote account.
// AccessToken is kept in clear text.
type Credential struct {
	ID             string
	Provider       Provider
	OwnerIdentity  string
	ProviderUserID string
	AccessToken    string
	DisplayName    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type credentialRecord struct {
	bun.BaseModel `bun:"table:social_credentials,alias:sc"`

	ID             string    `bun:"id,pk"`
	Provider       string    `bun:"provider,notnull"`
	OwnerIdentity  string    `bun:"owner_identity,notnull"`
	ProviderUserID string    `bun:"provider_user_id,notnull"`
	AccessToken    string    `bun:"access_token,notnull"`
	DisplayName    string    `bun:"display_name,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newCredentialRecord(in Credential, id string, now time.Time) *credentialRecord {
	return &credentialRecord{
		ID:             id,
		Provider:       string(in.Provider),
		OwnerIdentity:  in.OwnerIdentity,
		ProviderUserID: in.ProviderUserID,
		AccessToken:    in.AccessToken,
		DisplayName:    in.DisplayName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (r *credentialRecord) toDomain() Credential {
	if r == nil {
		return Credential{}
	}
	return Credential{
		ID:             r.ID,
		Provider:       Provider(r.Provider),
		OwnerIdentity:  r.OwnerIdentity,
		ProviderUserID: r.ProviderUserID,
		AccessToken:    r.AccessToken,
		DisplayName:    r.DisplayName,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
