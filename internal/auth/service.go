// Package auth authenticates callers of the REST and MCP surfaces.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brizzai/social-connect/internal/auth/middleware"
	"github.com/brizzai/social-connect/internal/auth/providers"
	"github.com/brizzai/social-connect/internal/config"
	"go.uber.org/fx"
)

// Service bundles token validation and the HTTP middleware built on it
type Service struct {
	provider     *providers.JWTProvider
	allowOrigins []string
}

// NewService creates the auth service. Allowed CORS origins default to the frontend URL.
func NewService(cfg *config.Config) (*Service, error) {
	provider, err := providers.NewJWTProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 && cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}

	return &Service{provider: provider, allowOrigins: origins}, nil
}

// Authenticate returns the authentication middleware
func (s *Service) Authenticate() func(http.Handler) http.Handler {
	return middleware.Authenticate(s.provider)
}

// WrapWithCors wraps handler with the CORS middleware
func (s *Service) WrapWithCors(handler http.Handler) http.Handler {
	return middleware.CORSWithOrigins(s.allowOrigins)(handler)
}

// IssueToken signs a token identifying email
func (s *Service) IssueToken(email string) (string, error) {
	return s.provider.IssueToken(email, "")
}

// OwnerFromContext returns the owner identity of the authenticated caller
func OwnerFromContext(ctx context.Context) (string, bool) {
	info, ok := middleware.FromContext(ctx)
	if !ok {
		return "", false
	}
	return info.Owner, true
}

// WithOwner attaches an owner identity to ctx, as Authenticate would
func WithOwner(ctx context.Context, owner string) context.Context {
	return middleware.WithAuthInfo(ctx, &middleware.AuthInfo{Email: owner, Owner: owner})
}

// Module provides the auth service
var Module = fx.Module("auth",
	fx.Provide(NewService),
)
