package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/metrics"
)

// BreakerStore guards the read path of a store with a circuit breaker. After Failures
// consecutive backend errors the breaker opens and reads fail fast with ErrStoreUnavailable
// until Timeout elapses. ErrItemNotFound and context cancellation do not count as failures.
type BreakerStore struct {
	RecommendationStore
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger *zap.Logger
}

// BreakerSettings configures NewBreakerStore.
type BreakerSettings struct {
	Name     string
	Failures uint32
	Timeout  time.Duration
}

// NewBreakerStore wraps store with a circuit breaker.
func NewBreakerStore(store RecommendationStore, settings BreakerSettings, logger *zap.Logger) *BreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Name == "" {
		settings.Name = "recommendation-store"
	}
	if settings.Failures == 0 {
		settings.Failures = 5
	}
	if settings.Timeout == 0 {
		settings.Timeout = 30 * time.Second
	}
	metrics.SetCircuitBreakerState(settings.Name, 0)

	b := &BreakerStore{RecommendationStore: store, name: settings.Name, logger: logger}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrItemNotFound) ||
				errors.Is(err, ErrInvalidKey) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.SetCircuitBreakerState(name, stateValue(to))
		},
	})
	return b
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker state as a string ("closed", "half-open", "open").
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func execute[T any](b *BreakerStore, op string, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	switch {
	case err == nil:
		metrics.RecordStoreOperation(op, "ok")
		return res.(T), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordStoreOperation(op, "rejected")
		return zero, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	case errors.Is(err, ErrItemNotFound):
		metrics.RecordStoreOperation(op, "not_found")
		return zero, err
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordStoreOperation(op, "error")
		return zero, err
	default:
		metrics.RecordStoreOperation(op, "error")
		b.logger.Error("store operation failed", zap.String("operation", op), zap.Error(err))
		return zero, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func (b *BreakerStore) Get(ctx context.Context, namespace, itemID string) (Recommendations, error) {
	return execute(b, "get", func() (Recommendations, error) {
		return b.RecommendationStore.Get(ctx, namespace, itemID)
	})
}

func (b *BreakerStore) ListItems(ctx context.Context, namespace string) ([]string, error) {
	return execute(b, "list_items", func() ([]string, error) {
		return b.RecommendationStore.ListItems(ctx, namespace)
	})
}

func (b *BreakerStore) ListNamespaces(ctx context.Context) ([]string, error) {
	return execute(b, "list_namespaces", func() ([]string, error) {
		return b.RecommendationStore.ListNamespaces(ctx)
	})
}

func (b *BreakerStore) FindReferrers(ctx context.Context, namespace, itemID string) ([]string, error) {
	return execute(b, "find_referrers", func() ([]string, error) {
		return b.RecommendationStore.FindReferrers(ctx, namespace, itemID)
	})
}

// CheckConnection reports false while the breaker is open without touching the backend.
func (b *BreakerStore) CheckConnection(ctx context.Context) bool {
	if b.cb.State() == gobreaker.StateOpen {
		return false
	}
	return b.RecommendationStore.CheckConnection(ctx)
}
