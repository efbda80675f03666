package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/simrec/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tests := []config.StoreConfig{
		{Driver: config.DriverMemory},
		{Driver: config.DriverBadger, Path: filepath.Join(dir, "badger")},
		{Driver: config.DriverSQLite, Path: filepath.Join(dir, "db", "recs.db")},
		{Driver: config.DriverMemory, ReverseIndex: true},
	}
	for _, cfg := range tests {
		t.Run(cfg.Driver, func(t *testing.T) {
			s, err := Open(ctx, cfg, nil)
			require.NoError(t, err)
			defer s.Close()
			assert.True(t, s.CheckConnection(ctx))
			_, err = s.Ingest(ctx, "ns", map[string][]string{"a": {"b"}, "b": {"a"}})
			require.NoError(t, err)
			refs, err := s.FindReferrers(ctx, "ns", "a")
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, refs)
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "redis"}, nil)
	assert.Error(t, err)
}
