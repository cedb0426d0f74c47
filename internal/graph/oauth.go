package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/brizzai/social-connect/internal/requester"
	"golang.org/x/oauth2"
)

const tokenExchangeFailed = "Token exchange failed"

// AuthCodeURL builds the consent dialog URL. state is passed through verbatim.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth2.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a short-lived user token.
// Provider-reported failures are returned as *APIError.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.requester.Client())

	tok, err := c.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(err)
	}

	out := &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
	}
	if v, ok := tok.Extra("expires_in").(float64); ok {
		out.ExpiresIn = int64(v)
	}
	return out, nil
}

func exchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		apiErr := &APIError{Message: tokenExchangeFailed}
		if retrieveErr.Response != nil {
			apiErr.Status = retrieveErr.Response.StatusCode
		}
		var env envelope
		if json.Unmarshal(retrieveErr.Body, &env) == nil && env.Error != nil && env.Error.Message != "" {
			env.Error.Status = apiErr.Status
			return env.Error
		}
		return apiErr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return err
	}

	// oauth2 reports a 2xx body without access_token as a plain error
	return &APIError{Message: tokenExchangeFailed}
}

// ExchangeLongLived upgrades a short-lived user token to a long-lived (about 60 day) one.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (*Token, error) {
	var out Token
	err := c.call(ctx, &requester.Request{
		URL: c.cfg.GraphURL("oauth/access_token"),
		Query: url.Values{
			"grant_type":        {"fb_exchange_token"},
			"client_id":         {c.cfg.AppID},
			"client_secret":     {c.cfg.AppSecret},
			"fb_exchange_token": {shortToken},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, ErrEmptyResult
	}
	return &out, nil
}
