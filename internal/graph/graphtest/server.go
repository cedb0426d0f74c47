// Package graphtest runs an in-process fake of the Graph API endpoints used by the
// Instagram connect and publish flows.
package graphtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/graph"
)

const Version = "v21.0"

// Call names recorded by Server.Calls
const (
	CallToken        = "token"
	CallLongLived    = "long_lived"
	CallPages        = "pages"
	CallBusiness     = "business_account"
	CallUsername     = "username"
	CallMedia        = "media"
	CallMediaPublish = "media_publish"
)

// Server is a scriptable fake. Set the exported fields before issuing requests.
type Server struct {
	*httptest.Server

	// ValidCode is the only authorization code accepted by the token endpoint
	ValidCode  string
	ShortToken string
	// TokenError, when set, is returned by the code exchange as a Graph error
	TokenError string
	// LongToken empty makes the long-lived exchange answer without a token
	LongToken string

	Pages            []graph.Page
	// PagesError, when set, makes /me/accounts answer with a Graph error
	PagesError       string
	BusinessAccounts map[string]string
	Usernames        map[string]string

	ContainerID    string
	ContainerError string
	PublishID      string
	PublishError   string

	mu      sync.Mutex
	calls   map[string]int
	forms   map[string]map[string]string
	bearers map[string]string
}

// New starts a fake whose defaults describe a fully successful connect and publish.
func New() *Server {
	s := &Server{
		ValidCode:  "valid-code",
		ShortToken: "short-user-token",
		LongToken:  "long-user-token",
		Pages: []graph.Page{
			{ID: "page-1", Name: "First Page", AccessToken: "page-token-1"},
			{ID: "page-2", Name: "Second Page", AccessToken: "page-token-2"},
		},
		BusinessAccounts: map[string]string{"page-1": "ig-1", "page-2": "ig-2"},
		Usernames:        map[string]string{"ig-1": "first.handle", "ig-2": "second.handle"},
		ContainerID:      "container-1",
		PublishID:        "media-1",
		calls:            map[string]int{},
		forms:            map[string]map[string]string{},
		bearers:          map[string]string{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// InstagramConfig returns a config pointing every Graph URL at the fake
func (s *Server) InstagramConfig() config.InstagramConfig {
	return config.InstagramConfig{
		AppID:         "app-id",
		AppSecret:     "app-secret",
		RedirectURI:   "http://localhost:8000/instagram/callback",
		GraphBaseURL:  s.URL,
		DialogBaseURL: "https://www.facebook.com",
		GraphVersion:  Version,
		Scopes:        []string{"instagram_basic", "instagram_content_publish"},
		HTTPTimeout:   5 * time.Second,
	}
}

// Calls reports how many times an endpoint was hit
func (s *Server) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// TotalCalls reports how many requests reached the fake
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// LastForm returns the last form field value posted to an endpoint
func (s *Server) LastForm(name, field string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[name][field]
}

// LastBearer returns the bearer token presented on the last call to an endpoint
func (s *Server) LastBearer(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bearers[name]
}

func (s *Server) record(name string, r *http.Request) {
	_ = r.ParseForm()
	form := map[string]string{}
	for k := range r.Form {
		form[k] = r.Form.Get(k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	s.forms[name] = form
	s.bearers[name] = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/"+Version+"/")
	segments := strings.Split(path, "/")

	switch {
	case path == "oauth/access_token" && r.Method == http.MethodPost:
		s.record(CallToken, r)
		s.handleToken(w, r)
	case path == "oauth/access_token" && r.Method == http.MethodGet:
		s.record(CallLongLived, r)
		if s.LongToken == "" {
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": s.LongToken,
			"token_type":   "bearer",
			"expires_in":   5183944,
		})
	case path == "me/accounts":
		s.record(CallPages, r)
		if s.PagesError != "" {
			writeError(w, http.StatusForbidden, s.PagesError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": s.Pages})
	case len(segments) == 1 && r.URL.Query().Get("fields") == "instagram_business_account":
		s.record(CallBusiness, r)
		body := map[string]any{"id": segments[0]}
		if ig, ok := s.BusinessAccounts[segments[0]]; ok {
			body["instagram_business_account"] = map[string]string{"id": ig}
		}
		writeJSON(w, http.StatusOK, body)
	case len(segments) == 1 && r.URL.Query().Get("fields") == "username":
		s.record(CallUsername, r)
		name, ok := s.Usernames[segments[0]]
		if !ok {
			writeError(w, http.StatusBadRequest, "Unsupported get request.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": segments[0], "username": name})
	case len(segments) == 2 && segments[1] == "media" && r.Method == http.MethodPost:
		s.record(CallMedia, r)
		s.writeIDOrError(w, s.ContainerID, s.ContainerError)
	case len(segments) == 2 && segments[1] == "media_publish" && r.Method == http.MethodPost:
		s.record(CallMediaPublish, r)
		s.writeIDOrError(w, s.PublishID, s.PublishError)
	default:
		writeError(w, http.StatusNotFound, "Unknown path components: "+r.URL.Path)
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.TokenError != "" {
		writeError(w, http.StatusBadRequest, s.TokenError)
		return
	}
	if r.PostForm.Get("code") != s.ValidCode {
		writeError(w, http.StatusBadRequest, "Invalid verification code format.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.ShortToken,
		"token_type":   "bearer",
		"expires_in":   3600,
	})
}

func (s *Server) writeIDOrError(w http.ResponseWriter, id, errMsg string) {
	switch {
	case errMsg != "":
		writeError(w, http.StatusBadRequest, errMsg)
	case id == "":
		writeJSON(w, http.StatusOK, map[string]any{})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message":    message,
			"type":       "OAuthException",
			"code":       100,
			"fbtrace_id": "trace",
		},
	})
}
