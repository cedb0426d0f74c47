package graph_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/brizzai/social-connect/internal/graph"
	"github.com/brizzai/social-connect/internal/graph/graphtest"
	"github.com/brizzai/social-connect/internal/requester"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*graph.Client, *graphtest.Server) {
	t.Helper()
	fake := graphtest.New()
	t.Cleanup(fake.Close)
	cfg := fake.InstagramConfig()
	return graph.NewClient(cfg, requester.NewHTTPRequester(cfg.HTTPTimeout)), fake
}

func TestAuthCodeURL(t *testing.T) {
	client, _ := newClient(t)

	raw := client.AuthCodeURL("owner+tag@example.com")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "www.facebook.com", u.Host)
	assert.Equal(t, "/v21.0/dialog/oauth", u.Path)

	q := u.Query()
	assert.Equal(t, "owner+tag@example.com", q.Get("state"))
	assert.Equal(t, "app-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8000/instagram/callback", q.Get("redirect_uri"))
	assert.Equal(t, "instagram_basic,instagram_content_publish", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestExchangeCode(t *testing.T) {
	client, fake := newClient(t)

	tok, err := client.ExchangeCode(context.Background(), "valid-code")
	require.NoError(t, err)
	assert.Equal(t, "short-user-token", tok.AccessToken)
	assert.Equal(t, int64(3600), tok.ExpiresIn)

	assert.Equal(t, 1, fake.Calls(graphtest.CallToken))
	assert.Equal(t, "app-secret", fake.LastForm(graphtest.CallToken, "client_secret"))
	assert.Equal(t, "http://localhost:8000/instagram/callback", fake.LastForm(graphtest.CallToken, "redirect_uri"))
}

func TestExchangeCode_ProviderError(t *testing.T) {
	client, fake := newClient(t)
	fake.TokenError = "This authorization code has expired."

	_, err := client.ExchangeCode(context.Background(), "valid-code")
	require.Error(t, err)

	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "This authorization code has expired.", apiErr.Message)
	assert.Equal(t, "OAuthException", apiErr.Type)
	assert.Equal(t, 400, apiErr.Status)
}

func TestExchangeLongLived(t *testing.T) {
	client, fake := newClient(t)

	tok, err := client.ExchangeLongLived(context.Background(), "short-user-token")
	require.NoError(t, err)
	assert.Equal(t, "long-user-token", tok.AccessToken)
	assert.Equal(t, "fb_exchange_token", fake.LastForm(graphtest.CallLongLived, "grant_type"))
	assert.Equal(t, "short-user-token", fake.LastForm(graphtest.CallLongLived, "fb_exchange_token"))

	fake.LongToken = ""
	_, err = client.ExchangeLongLived(context.Background(), "short-user-token")
	assert.ErrorIs(t, err, graph.ErrEmptyResult)
}

func TestAccounts(t *testing.T) {
	client, fake := newClient(t)
	ctx := context.Background()

	pages, err := client.ListPages(ctx, "long-user-token")
	require.NoError(t, err)
	if diff := cmp.Diff(fake.Pages, pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "long-user-token", fake.LastBearer(graphtest.CallPages))

	ref, err := client.BusinessAccount(ctx, "page-1", "page-token-1")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "ig-1", ref.ID)
	assert.Equal(t, "page-token-1", fake.LastBearer(graphtest.CallBusiness))

	delete(fake.BusinessAccounts, "page-2")
	ref, err = client.BusinessAccount(ctx, "page-2", "page-token-2")
	require.NoError(t, err)
	assert.Nil(t, ref)

	name, err := client.Username(ctx, "ig-1", "page-token-1")
	require.NoError(t, err)
	assert.Equal(t, "first.handle", name)

	_, err = client.Username(ctx, "ig-unknown", "page-token-1")
	var apiErr *graph.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestMedia(t *testing.T) {
	client, fake := newClient(t)
	ctx := context.Background()

	id, err := client.CreateContainer(ctx, "ig-1", "page-token-1", "https://tmpfiles.org/dl/1/cat.jpg", "caption")
	require.NoError(t, err)
	assert.Equal(t, "container-1", id)
	assert.Equal(t, "https://tmpfiles.org/dl/1/cat.jpg", fake.LastForm(graphtest.CallMedia, "image_url"))
	assert.Equal(t, "caption", fake.LastForm(graphtest.CallMedia, "caption"))
	assert.Equal(t, "page-token-1", fake.LastForm(graphtest.CallMedia, "access_token"))

	postID, err := client.PublishContainer(ctx, "ig-1", "page-token-1", id)
	require.NoError(t, err)
	assert.Equal(t, "media-1", postID)
	assert.Equal(t, "container-1", fake.LastForm(graphtest.CallMediaPublish, "creation_id"))
}

func TestMedia_Failures(t *testing.T) {
	client, fake := newClient(t)
	ctx := context.Background()

	fake.ContainerError = "Only photo or video can be accepted as media type."
	_, err := client.CreateContainer(ctx, "ig-1", "tok", "https://x", "c")
	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Only photo or video can be accepted as media type.", apiErr.Message)

	fake.ContainerError = ""
	fake.ContainerID = ""
	_, err = client.CreateContainer(ctx, "ig-1", "tok", "https://x", "c")
	assert.ErrorIs(t, err, graph.ErrEmptyResult)

	fake.PublishID = ""
	_, err = client.PublishContainer(ctx, "ig-1", "tok", "container-1")
	assert.ErrorIs(t, err, graph.ErrEmptyResult)
}
