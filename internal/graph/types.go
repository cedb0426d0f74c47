package graph

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when a response carries neither a payload identifier nor an error
var ErrEmptyResult = errors.New("graph: response missing result")

// APIError is the error object the Graph API returns in place of a payload.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`

	// Status is the HTTP status of the response that carried the error
	Status int `json:"-"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("graph: %s (%s, code %d)", e.Message, e.Type, e.Code)
	}
	return "graph: " + e.Message
}

// envelope is decoded first from every response to split failure from success
type envelope struct {
	Error *APIError `json:"error"`
}

// Token is an access token issued by the OAuth token endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Page is a Facebook Page the authenticated identity can manage
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	AccessToken string `json:"access_token"`
}

type pagesResponse struct {
	Data []Page `json:"data"`
}

// AccountRef is a bare object reference such as a linked business account
type AccountRef struct {
	ID string `json:"id"`
}

type businessAccountResponse struct {
	ID                       string      `json:"id"`
	InstagramBusinessAccount *AccountRef `json:"instagram_business_account"`
}

type usernameResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type idResponse struct {
	ID string `json:"id"`
}
