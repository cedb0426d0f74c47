package store

import (
	"context"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the credential store, migrated on start and closed on stop
var Module = fx.Module("store",
	fx.Provide(newLifecycleStore),
)

func newLifecycleStore(lc fx.Lifecycle, cfg *config.Config) (*SQLStore, error) {
	s, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("migrating credential store", zap.String("driver", string(cfg.Database.Driver)))
			return s.Migrate(ctx)
		},
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}
