package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/brizzai/social-connect/internal/auth/constants"
	"github.com/brizzai/social-connect/internal/auth/providers"
	"github.com/brizzai/social-connect/internal/logger"
	"go.uber.org/zap"
)

// AuthContext is the key type for the context
type authContextKey string

const (
	// AuthContextKey is used to store auth info in the request context
	AuthContextKey authContextKey = "auth"
)

// AuthInfo represents the authentication information stored in context
type AuthInfo struct {
	UserID string
	Email  string
	Name   string
	Owner  string
}

// WithAuthInfo returns a copy of ctx carrying info
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, AuthContextKey, info)
}

// FromContext returns the auth info stored by Authenticate
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(AuthContextKey).(*AuthInfo)
	if !ok || info == nil || info.Owner == "" {
		return nil, false
	}
	return info, true
}

// Authenticate middleware validates the caller's bearer token
func Authenticate(provider providers.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
				return
			}

			userInfo, err := provider.ValidateAccessToken(r.Context(), token)
			if err != nil {
				logger.Debug("Rejected bearer token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "invalid_token", "Could not validate credentials")
				return
			}

			ctx := WithAuthInfo(r.Context(), &AuthInfo{
				UserID: userInfo.ID,
				Email:  userInfo.Email,
				Name:   userInfo.Name,
				Owner:  userInfo.OwnerIdentity(),
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORSWithOrigins allows the listed origins, or any origin when the list contains "*"
func CORSWithOrigins(origins []string) func(http.Handler) http.Handler {
	allowAll := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(origins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(constants.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(constants.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(constants.ExposedHeaders, ", "))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the Bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get(constants.AuthHeaderName)
	if strings.HasPrefix(authHeader, constants.AuthHeaderPrefix) {
		return strings.TrimPrefix(authHeader, constants.AuthHeaderPrefix)
	}
	return r.URL.Query().Get(constants.TokenQueryParam)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`%s realm="%s", error="%s"`, constants.TokenType, constants.Realm, code))
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": message})
}
