package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/config"
)

// Open builds the store selected by cfg.Driver, adds the reverse index when configured,
// and guards reads with a circuit breaker.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (RecommendationStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		store RecommendationStore
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = NewMemoryStore()
	case config.DriverBadger, "":
		store, err = NewBadgerStore(cfg.Path, logger)
	case config.DriverSQLite:
		store, err = NewSQLiteStore(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: memory, badger, sqlite)", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.ReverseIndex {
		indexed, err := WithReverseIndex(ctx, store)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = indexed
	}

	logger.Info("opened recommendation store",
		zap.String("driver", cfg.Driver), zap.String("path", cfg.Path), zap.Bool("reverse_index", cfg.ReverseIndex))
	return NewBreakerStore(store, BreakerSettings{
		Name:     "store-" + cfg.Driver,
		Failures: cfg.BreakerFailures,
		Timeout:  cfg.BreakerTimeout,
	}, logger), nil
}
