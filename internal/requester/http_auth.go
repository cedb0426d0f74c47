package requester

import (
	"net/http"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// BearerAuth sends the token in the Authorization header
type BearerAuth string

// ApplyAuth adds authentication to the request
func (b BearerAuth) ApplyAuth(req *http.Request) error {
	if b != "" {
		req.Header.Set("Authorization", "Bearer "+string(b))
	}
	return nil
}

// NoAuth leaves the request untouched
type NoAuth struct{}

// ApplyAuth adds authentication to the request
func (NoAuth) ApplyAuth(*http.Request) error {
	return nil
}
