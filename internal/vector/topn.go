package vector

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTopN is the neighbor list length used when n <= 0.
const DefaultTopN = 20

// MaxExactItems is the documented size limit for exact similarity. Larger matrices are
// still processed exactly; a warning is logged because time grows with the square of the item count.
const MaxExactItems = 50_000

// TopN holds the ranked neighbor list of every item in a matrix.
type TopN struct {
	// Neighbors maps item id to up to N other item ids, most similar first.
	Neighbors map[string][]string
	// IndexMap is the row index -> item id mapping the lists were computed from.
	IndexMap map[int]string
	N        int
}

// OrderedIDs returns the item ids in row index order.
func (t *TopN) OrderedIDs() []string {
	ids := make([]string, len(t.IndexMap))
	for i, id := range t.IndexMap {
		ids[i] = id
	}
	return ids
}

// BuildOption configures BuildTopN.
type BuildOption func(*builder)

type builder struct {
	workers int
	logger  *zap.Logger
}

// WithWorkers bounds the number of rows ranked concurrently. Values <= 0 use runtime.NumCPU().
func WithWorkers(n int) BuildOption {
	return func(b *builder) { b.workers = n }
}

// WithLogger sets a logger for size warnings and progress.
func WithLogger(l *zap.Logger) BuildOption {
	return func(b *builder) { b.logger = l }
}

// BuildTopN ranks, for every row of m, all other rows by descending cosine similarity and
// keeps the first n. Ties keep ascending row index order, so the result is identical for
// any worker count. n <= 0 means DefaultTopN.
func BuildTopN(ctx context.Context, m *Matrix, n int, opts ...BuildOption) (*TopN, error) {
	b := &builder{workers: runtime.NumCPU(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.NumCPU()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if n <= 0 {
		n = DefaultTopN
	}

	if err := m.checkShape(); err != nil {
		return nil, err
	}
	total := m.Len()
	result := &TopN{
		Neighbors: make(map[string][]string, total),
		IndexMap:  m.IndexMap(),
		N:         n,
	}
	if total == 0 {
		return result, nil
	}
	if total > MaxExactItems {
		b.logger.Warn("item count exceeds exact similarity limit; computation is quadratic",
			zap.Int("items", total), zap.Int("limit", MaxExactItems))
	}

	normed := make([][]float32, total)
	for i, row := range m.Rows {
		normed[i] = Normalized(row)
	}

	lists := make([][]string, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := 0; i < total; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lists[i] = rankRow(normed, i, n, m.IDs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, id := range m.IDs {
		result.Neighbors[id] = lists[i]
	}
	b.logger.Debug("built neighbor lists", zap.Int("items", total), zap.Int("n", n))
	return result, nil
}

// rankRow returns the ids of the n rows most similar to row i, excluding i.
func rankRow(normed [][]float32, i, n int, ids []string) []string {
	sims := make([]float64, len(normed))
	for j := range normed {
		if j != i {
			sims[j] = InnerProduct(normed[i], normed[j])
		}
	}
	candidates := make([]int, 0, len(normed)-1)
	for j := range normed {
		if j != i {
			candidates = append(candidates, j)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return sims[candidates[a]] > sims[candidates[b]]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for k, j := range candidates {
		out[k] = ids[j]
	}
	return out
}
