package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every read while down is true.
type flakyStore struct {
	*MemoryStore
	down  bool
	calls int
}

var errBackend = errors.New("connection refused")

func (f *flakyStore) Get(ctx context.Context, namespace, itemID string) (Recommendations, error) {
	f.calls++
	if f.down {
		return Recommendations{}, errBackend
	}
	return f.MemoryStore.Get(ctx, namespace, itemID)
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(), down: true}
	b := NewBreakerStore(inner, BreakerSettings{Name: "flaky", Failures: 2, Timeout: time.Hour}, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Get(ctx, "ns", "a")
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	}
	assert.Equal(t, "open", b.State())
	assert.False(t, b.CheckConnection(ctx))

	_, err := b.Get(ctx, "ns", "a")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach the backend")
}

func TestBreakerStore_NotFoundIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	b := NewBreakerStore(NewMemoryStore(), BreakerSettings{Name: "nf", Failures: 1}, nil)
	for i := 0; i < 3; i++ {
		_, err := b.Get(ctx, "ns", "missing")
		assert.ErrorIs(t, err, ErrItemNotFound)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreakerStore_RecoversAfterTimeout(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(), down: true}
	_, err := inner.Ingest(ctx, "ns", map[string][]string{"a": {"b"}})
	require.NoError(t, err)
	b := NewBreakerStore(inner, BreakerSettings{Name: "recover", Failures: 1, Timeout: 20 * time.Millisecond}, nil)

	_, err = b.Get(ctx, "ns", "a")
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Equal(t, "open", b.State())

	inner.down = false
	time.Sleep(40 * time.Millisecond)
	got, err := b.Get(ctx, "ns", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.IDs)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerStore_IngestPassesThrough(t *testing.T) {
	b := NewBreakerStore(NewMemoryStore(), BreakerSettings{}, nil)
	n, err := b.Ingest(context.Background(), "ns", map[string][]string{"a": nil})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
