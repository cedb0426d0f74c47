package providers

import (
	"context"

	"github.com/brizzai/social-connect/internal/auth/models"
)

// Provider validates bearer tokens presented by callers
type Provider interface {
	// ValidateAccessToken validates a raw access token and returns user info
	ValidateAccessToken(ctx context.Context, token string) (*models.UserInfo, error)
}
