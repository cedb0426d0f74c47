package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/graph"
	"github.com/brizzai/social-connect/internal/graph/graphtest"
	"github.com/brizzai/social-connect/internal/requester"
	"github.com/brizzai/social-connect/internal/store"
	"github.com/brizzai/social-connect/internal/temphost"
	"github.com/stretchr/testify/require"
)

const (
	testFrontend = "http://localhost:5173"
	testOwner    = "owner@example.com"
)

// fakeHost answers like tmpfiles.org
type fakeHost struct {
	*httptest.Server
	calls atomic.Int32

	mu     sync.Mutex
	status string
}

func (h *fakeHost) setStatus(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
}

func (h *fakeHost) currentStatus() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()
	h := &fakeHost{status: "success"}
	h.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.calls.Add(1)
		filename := "upload.jpg"
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if _, hdr, err := r.FormFile("file"); err == nil {
				filename = hdr.Filename
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"` + h.currentStatus() + `","data":{"url":"https://tmpfiles.org/77/` + filename + `"}}`))
	}))
	t.Cleanup(h.Close)
	return h
}

type testEnv struct {
	graph *graphtest.Server
	host  *fakeHost
	store *store.SQLStore
	cfg   *config.Config
	svc   *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gs := graphtest.New()
	t.Cleanup(gs.Close)
	host := newFakeHost(t)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(config.DatabaseConfig{
		Driver: config.DatabaseDriverSQLite,
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	cfg := &config.Config{
		Instagram:   gs.InstagramConfig(),
		TempHost:    config.TempHostConfig{UploadURL: host.URL},
		Upload:      config.UploadConfig{MaxMemory: 1 << 20},
		FrontendURL: testFrontend,
	}

	r := requester.NewHTTPRequester(0)
	svc := NewService(cfg, graph.NewClient(cfg.Instagram, r), temphost.NewClient(host.URL, r), st)

	return &testEnv{graph: gs, host: host, store: st, cfg: cfg, svc: svc}
}

// connect seeds a credential without going through the callback
func (e *testEnv) connect(t *testing.T, owner string) {
	t.Helper()
	_, err := e.store.Upsert(context.Background(), store.Credential{
		Provider:       store.ProviderInstagram,
		OwnerIdentity:  owner,
		ProviderUserID: "ig-1",
		AccessToken:    "page-token-1",
		DisplayName:    "first.handle",
	})
	require.NoError(t, err)
}

func (e *testEnv) count(t *testing.T, owner string) int {
	t.Helper()
	n, err := e.store.Count(context.Background(), store.ProviderInstagram, owner)
	require.NoError(t, err)
	return n
}

func errorRedirect(message string) string {
	return testFrontend + "?instagram=error&message=" + escape(message)
}
