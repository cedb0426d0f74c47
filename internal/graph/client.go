// Package graph is a typed client for the parts of the Facebook Graph API used to
// connect Instagram business accounts and publish media to them.
package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/requester"
	"golang.org/x/oauth2"
)

// Client talks to one versioned Graph API deployment
type Client struct {
	cfg       config.InstagramConfig
	requester *requester.HTTPRequester
	oauth2    *oauth2.Config
}

// NewClient creates a Graph API client. The requester's HTTP client is also used for
// the OAuth token exchange.
func NewClient(cfg config.InstagramConfig, r *requester.HTTPRequester) *Client {
	if r == nil {
		r = requester.NewHTTPRequester(cfg.HTTPTimeout)
	}

	var scopes []string
	if len(cfg.Scopes) > 0 {
		// The dialog expects a single comma separated scope parameter
		scopes = []string{strings.Join(cfg.Scopes, ",")}
	}

	return &Client{
		cfg:       cfg,
		requester: r,
		oauth2: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.DialogURL(),
				TokenURL:  cfg.GraphURL("oauth/access_token"),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (c *Client) nodeURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.cfg.GraphURL(strings.Join(escaped, "/"))
}

// get performs a GET and decodes the success payload into out
func (c *Client) get(ctx context.Context, target string, query url.Values, token string, out interface{}) error {
	return c.call(ctx, &requester.Request{
		Method: http.MethodGet,
		URL:    target,
		Query:  query,
		Auth:   requester.BearerAuth(token),
	}, out)
}

// post sends a form POST and decodes the success payload into out
func (c *Client) post(ctx context.Context, target string, form url.Values, out interface{}) error {
	return c.call(ctx, &requester.Request{
		Method: http.MethodPost,
		URL:    target,
		Form:   form,
	}, out)
}

func (c *Client) call(ctx context.Context, req *requester.Request, out interface{}) error {
	resp, err := c.requester.Do(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// decode splits a Graph response into its failure or success variant
func decode(resp *requester.Response, out interface{}) error {
	var env envelope
	if err := resp.DecodeJSON(&env); err != nil {
		return &APIError{Message: err.Error(), Status: resp.StatusCode}
	}
	if env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	if !resp.OK() {
		return &APIError{
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}
	return resp.DecodeJSON(out)
}
