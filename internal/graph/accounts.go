package graph

import (
	"context"
	"net/url"
)

// ListPages returns the pages manageable by the token's identity, in provider order.
func (c *Client) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	var out pagesResponse
	if err := c.get(ctx, c.nodeURL("me", "accounts"), nil, userToken, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// BusinessAccount resolves the Instagram business account linked to a page.
// A nil ref with a nil error means the page has no linked account.
func (c *Client) BusinessAccount(ctx context.Context, pageID, pageToken string) (*AccountRef, error) {
	var out businessAccountResponse
	query := url.Values{"fields": {"instagram_business_account"}}
	if err := c.get(ctx, c.nodeURL(pageID), query, pageToken, &out); err != nil {
		return nil, err
	}
	if out.InstagramBusinessAccount == nil || out.InstagramBusinessAccount.ID == "" {
		return nil, nil
	}
	return out.InstagramBusinessAccount, nil
}

// Username fetches the handle of an Instagram business account
func (c *Client) Username(ctx context.Context, igUserID, token string) (string, error) {
	var out usernameResponse
	query := url.Values{"fields": {"username"}}
	if err := c.get(ctx, c.nodeURL(igUserID), query, token, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}
