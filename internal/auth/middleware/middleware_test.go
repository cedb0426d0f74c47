package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brizzai/social-connect/internal/auth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider map[string]*models.UserInfo

func (p staticProvider) ValidateAccessToken(_ context.Context, token string) (*models.UserInfo, error) {
	if u, ok := p[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

func TestAuthenticate(t *testing.T) {
	provider := staticProvider{
		"good":    {ID: "sub-1", Email: "owner@example.com"},
		"subject": {ID: "sub-2"},
	}

	var seen *AuthInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Authenticate(provider)(next)

	tests := []struct {
		name      string
		header    string
		target    string
		wantCode  int
		wantOwner string
	}{
		{name: "missing", target: "/x", wantCode: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer bad", target: "/x", wantCode: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic good", target: "/x", wantCode: http.StatusUnauthorized},
		{name: "header", header: "Bearer good", target: "/x", wantCode: http.StatusOK, wantOwner: "owner@example.com"},
		{name: "query", target: "/x?token=good", wantCode: http.StatusOK, wantOwner: "owner@example.com"},
		{name: "subject fallback", header: "Bearer subject", target: "/x", wantCode: http.StatusOK, wantOwner: "sub-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Nil(t, seen)
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
				assert.Contains(t, rec.Body.String(), `"detail"`)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.wantOwner, seen.Owner)
		})
	}
}

func TestCORSWithOrigins(t *testing.T) {
	h := CORSWithOrigins([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/instagram/status", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/instagram/status", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		wildcard := CORSWithOrigins([]string{"*"})(http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://anywhere.example")
		rec := httptest.NewRecorder()
		wildcard.ServeHTTP(rec, req)
		assert.Equal(t, "http://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithAuthInfo(context.Background(), &AuthInfo{}))
	assert.False(t, ok)

	info, ok := FromContext(WithAuthInfo(context.Background(), &AuthInfo{Owner: "a@b.c"}))
	require.True(t, ok)
	assert.Equal(t, "a@b.c", info.Owner)
}
