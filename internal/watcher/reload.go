package watcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/artifact"
)

// Ingester loads a neighbor lists file into the store. An empty namespace is inferred
// from the file name.
type Ingester interface {
	Ingest(ctx context.Context, path, namespace string) (int, error)
}

// NewArtifactWatcher watches dir for neighbor list artifacts and ingests each one when it
// is written. Ingest failures are logged; the previous sets stay in the store.
func NewArtifactWatcher(ctx context.Context, dir string, ing Ingester, opts ...WatcherOption) *Watcher {
	w := NewWatcher([]string{dir}, artifact.IsNeighborsFile, nil, opts...)
	w.onChange = func(path string) {
		n, err := ing.Ingest(ctx, path, "")
		if err != nil {
			w.logger.Error("failed to reload neighbor lists", zap.String("path", path), zap.Error(err))
			return
		}
		w.logger.Info("reloaded neighbor lists", zap.String("path", path), zap.Int("items", n))
	}
	return w
}
