package tool

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brizzai/social-connect/internal/auth"
	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/graph"
	"github.com/brizzai/social-connect/internal/graph/graphtest"
	"github.com/brizzai/social-connect/internal/instagram"
	"github.com/brizzai/social-connect/internal/requester"
	"github.com/brizzai/social-connect/internal/store"
	"github.com/brizzai/social-connect/internal/temphost"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "owner@example.com"

func newTestHandler(t *testing.T) (*Handler, *store.SQLStore, *graphtest.Server) {
	t.Helper()

	gs := graphtest.New()
	t.Cleanup(gs.Close)
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"url":"https://tmpfiles.org/5/image.jpg"}}`))
	}))
	t.Cleanup(host.Close)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(config.DatabaseConfig{
		Driver: config.DatabaseDriverSQLite,
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	cfg := &config.Config{Instagram: gs.InstagramConfig(), FrontendURL: "http://localhost:5173"}
	r := requester.NewHTTPRequester(0)
	svc := instagram.NewService(cfg, graph.NewClient(cfg.Instagram, r), temphost.NewClient(host.URL, r), st)
	return NewHandler(svc), st, gs
}

func seed(t *testing.T, st *store.SQLStore) {
	t.Helper()
	_, err := st.Upsert(context.Background(), store.Credential{
		Provider:       store.ProviderInstagram,
		OwnerIdentity:  testOwner,
		ProviderUserID: "ig-1",
		AccessToken:    "page-token-1",
		DisplayName:    "first.handle",
	})
	require.NoError(t, err)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTools_RequireOwner(t *testing.T) {
	h, _, gs := newTestHandler(t)

	for name, fn := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		StatusToolName: h.HandleStatus,
		PostToolName:   h.HandlePost,
	} {
		res, err := fn(context.Background(), callRequest(name, map[string]any{"caption": "hi"}))
		require.NoError(t, err)
		assert.True(t, res.IsError, name)
		assert.Contains(t, resultText(t, res), "Unauthorized")
	}
	assert.Zero(t, gs.TotalCalls())
}

func TestStatusTool(t *testing.T) {
	h, st, _ := newTestHandler(t)
	ctx := auth.WithOwner(context.Background(), testOwner)

	res, err := h.HandleStatus(ctx, callRequest(StatusToolName, nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"connected":false}`, resultText(t, res))

	seed(t, st)
	res, err = h.HandleStatus(ctx, callRequest(StatusToolName, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"connected":true,"username":"first.handle"}`, resultText(t, res))
}

func TestPostTool(t *testing.T) {
	h, st, gs := newTestHandler(t)
	ctx := auth.WithOwner(context.Background(), testOwner)
	image := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	t.Run("not connected", func(t *testing.T) {
		res, err := h.HandlePost(ctx, callRequest(PostToolName, map[string]any{"caption": "hi", "image_base64": image}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, instagram.MsgNotConnectedPost, resultText(t, res))
	})

	seed(t, st)

	t.Run("missing caption", func(t *testing.T) {
		res, err := h.HandlePost(ctx, callRequest(PostToolName, map[string]any{"image_base64": image}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "caption is required", resultText(t, res))
	})

	t.Run("missing image", func(t *testing.T) {
		res, err := h.HandlePost(ctx, callRequest(PostToolName, map[string]any{"caption": "hi"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, instagram.MsgImageRequired, resultText(t, res))
	})

	t.Run("bad base64", func(t *testing.T) {
		res, err := h.HandlePost(ctx, callRequest(PostToolName, map[string]any{"caption": "hi", "image_base64": "%%%"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("success", func(t *testing.T) {
		res, err := h.HandlePost(ctx, callRequest(PostToolName, map[string]any{"caption": "hi", "image_base64": image}))
		require.NoError(t, err)
		require.False(t, res.IsError, resultText(t, res))

		var out instagram.PostResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
		assert.Equal(t, "media-1", out.PostID)
		assert.Equal(t, "https://tmpfiles.org/dl/5/image.jpg", gs.LastForm(graphtest.CallMedia, "image_url"))
	})
}

func TestToolDefinitions(t *testing.T) {
	post := PostTool()
	assert.Equal(t, PostToolName, post.Name)
	assert.ElementsMatch(t, []string{"caption", "image_base64"}, post.InputSchema.Required)
	assert.Contains(t, post.InputSchema.Properties, "filename")

	assert.Equal(t, StatusToolName, StatusTool().Name)
}
