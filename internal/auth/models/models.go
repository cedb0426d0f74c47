package models

// UserInfo represents the authenticated application user
type UserInfo struct {
	ID    string
	Email string
	Name  string
}

// OwnerIdentity is the key under which the user's connected accounts are stored.
// The email claim is preferred, the subject is the fallback.
func (u *UserInfo) OwnerIdentity() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}
