package instagram

import (
	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/graph"
	"github.com/brizzai/social-connect/internal/requester"
	"github.com/brizzai/social-connect/internal/store"
	"github.com/brizzai/social-connect/internal/temphost"
	"go.uber.org/fx"
)

// Module provides the Instagram service and its REST handler
var Module = fx.Module("instagram",
	fx.Provide(
		NewFromConfig,
		NewHandler,
	),
)

// NewFromConfig builds the service against the real Graph API and temp host
func NewFromConfig(cfg *config.Config, st *store.SQLStore) *Service {
	graphClient := graph.NewClient(cfg.Instagram, requester.NewHTTPRequester(cfg.Instagram.HTTPTimeout))
	uploader := temphost.NewClient(cfg.TempHost.UploadURL, requester.NewHTTPRequester(cfg.TempHost.HTTPTimeout))
	return NewService(cfg, graphClient, uploader, st)
}
