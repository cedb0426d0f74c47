package requester

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes an outbound call before it is turned into an *http.Request.
// Query is appended to the URL; Form and File select the body encoding.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Form    url.Values
	File    *FilePart
	Headers map[string]string
	Auth    AuthManager
}

// FilePart is a single file sent in a multipart/form-data body
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the response body into v regardless of status code.
func (r *Response) DecodeJSON(v interface{}) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body (status %d)", r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", r.StatusCode, err)
	}
	return nil
}
