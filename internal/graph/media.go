package graph

import (
	"context"
	"net/url"
)

// CreateContainer stages an image post and returns its creation id
func (c *Client) CreateContainer(ctx context.Context, igUserID, token, imageURL, caption string) (string, error) {
	var out idResponse
	form := url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {token},
	}
	if err := c.post(ctx, c.nodeURL(igUserID, "media"), form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", ErrEmptyResult
	}
	return out.ID, nil
}

// PublishContainer publishes a staged container and returns the media id
func (c *Client) PublishContainer(ctx context.Context, igUserID, token, creationID string) (string, error) {
	var out idResponse
	form := url.Values{
		"creation_id":  {creationID},
		"access_token": {token},
	}
	if err := c.post(ctx, c.nodeURL(igUserID, "media_publish"), form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", ErrEmptyResult
	}
	return out.ID, nil
}
