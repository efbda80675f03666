package embedding

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/hyperjump/simrec/internal/models"
	"github.com/hyperjump/simrec/internal/vector"
	"github.com/hyperjump/simrec/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyText is returned for items whose text is empty or whitespace only.
	ErrEmptyText = errors.New("item text is empty")
	// ErrDimensionMismatch is returned when the embedder yields a vector of unexpected length.
	ErrDimensionMismatch = vector.ErrDimensionMismatch
)

// Encoder converts items into single embeddings, chunking and averaging text that exceeds
// the token budget.
type Encoder struct {
	embedder  Embedder
	counter   TokenCounter
	chunker   *Chunker
	maxTokens int
	workers   int
	logger    *zap.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithLogger sets a logger for per-item progress and skipped items.
func WithLogger(l *zap.Logger) EncoderOption {
	return func(e *Encoder) { e.logger = l }
}

// WithWorkers bounds how many items are encoded concurrently by EncodeCorpus.
func WithWorkers(n int) EncoderOption {
	return func(e *Encoder) { e.workers = n }
}

// WithTokenCounter replaces the default UnicodeTokenCounter.
func WithTokenCounter(c TokenCounter) EncoderOption {
	return func(e *Encoder) { e.counter = c }
}

// NewEncoder returns an encoder over embedder with the given per-input token budget.
func NewEncoder(embedder Embedder, maxTokens int, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		embedder:  embedder,
		maxTokens: maxTokens,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.counter == nil {
		e.counter = NewUnicodeTokenCounter()
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}
	e.logger = utils.OrNop(e.logger)
	e.chunker = NewChunker(e.counter, maxTokens)
	return e
}

// Encode returns the embedding for one item. Text within the token budget is embedded
// directly; longer text is chunked and the chunk embeddings are averaged element-wise.
func (e *Encoder) Encode(ctx context.Context, item models.Item) ([]float32, error) {
	res, err := e.encode(ctx, item)
	if err != nil {
		return nil, err
	}
	return res.vector, nil
}

type encoded struct {
	vector []float32
	tokens int
	chunks int
}

func (e *Encoder) encode(ctx context.Context, item models.Item) (encoded, error) {
	if utils.IsBlank(item.Text) {
		return encoded{}, ErrEmptyText
	}
	tokens := e.counter.CountTokens(item.Text)
	if tokens <= e.maxTokens {
		vec, err := e.embedder.Embed(ctx, item.Text)
		if err != nil {
			return encoded{}, err
		}
		if err := e.checkDims(vec); err != nil {
			return encoded{}, err
		}
		return encoded{vector: vec, tokens: tokens, chunks: 1}, nil
	}

	chunks := e.chunker.Chunk(item.Text)
	vecs, err := e.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return encoded{}, err
	}
	for _, v := range vecs {
		if err := e.checkDims(v); err != nil {
			return encoded{}, err
		}
	}
	mean, ok := utils.MeanVector(vecs)
	if !ok {
		return encoded{}, fmt.Errorf("%w: no chunk embeddings", ErrEmptyText)
	}
	e.logger.Debug("averaged chunk embeddings",
		zap.String("item_id", item.ID), zap.Int("tokens", tokens), zap.Int("chunks", len(chunks)))
	return encoded{vector: mean, tokens: tokens, chunks: len(chunks)}, nil
}

func (e *Encoder) checkDims(v []float32) error {
	if want := e.embedder.Dimensions(); len(v) != want {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(v), want)
	}
	return nil
}

// CorpusStats summarizes one EncodeCorpus run.
type CorpusStats struct {
	Items        int     `json:"items"`
	Embedded     int     `json:"embedded"`
	Chunked      int     `json:"chunked"`
	Skipped      int     `json:"skipped"`
	Duplicates   int     `json:"duplicates"`
	AvgTokens    float64 `json:"avg_tokens"`
	MedianTokens float64 `json:"median_tokens"`
	MaxTokens    int     `json:"max_tokens"`
	OverLimit    int     `json:"over_limit"`
}

// EncodeCorpus encodes every item concurrently and returns the embeddings as a matrix whose
// rows follow input order. Items that fail (empty text, embedder error) are logged and skipped;
// a later record with an already-seen id is skipped. A dimension mismatch or context
// cancellation aborts the run.
func (e *Encoder) EncodeCorpus(ctx context.Context, items []models.Item) (*vector.Matrix, *CorpusStats, error) {
	stats := &CorpusStats{Items: len(items)}

	unique := make([]models.Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			e.logger.Warn("skipping item without id")
			stats.Skipped++
			continue
		}
		if _, dup := seen[item.ID]; dup {
			e.logger.Warn("skipping duplicate item id", zap.String("item_id", item.ID))
			stats.Duplicates++
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}

	results := make([]encoded, len(unique))
	failed := make([]bool, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, item := range unique {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.encode(gctx, item)
			switch {
			case err == nil:
				results[i] = res
			case errors.Is(err, ErrDimensionMismatch):
				return fmt.Errorf("item %s: %w", item.ID, err)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				e.logger.Warn("skipping item", zap.String("item_id", item.ID), zap.Error(err))
				failed[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(unique))
	rows := make([][]float32, 0, len(unique))
	lengths := make([]int, 0, len(unique))
	for i, item := range unique {
		if failed[i] {
			stats.Skipped++
			continue
		}
		res := results[i]
		ids = append(ids, item.ID)
		rows = append(rows, res.vector)
		lengths = append(lengths, res.tokens)
		if res.chunks > 1 {
			stats.Chunked++
		}
		if res.tokens > e.maxTokens {
			stats.OverLimit++
		}
		if res.tokens > stats.MaxTokens {
			stats.MaxTokens = res.tokens
		}
	}
	stats.Embedded = len(ids)
	if len(lengths) > 0 {
		total := 0
		for _, n := range lengths {
			total += n
		}
		stats.AvgTokens = float64(total) / float64(len(lengths))
		stats.MedianTokens = utils.Median(lengths)
	}

	m, err := vector.NewMatrix(ids, rows)
	if err != nil {
		return nil, nil, err
	}
	e.logger.Info("encoded corpus",
		zap.Int("items", stats.Items),
		zap.Int("embedded", stats.Embedded),
		zap.Int("chunked", stats.Chunked),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates))
	return m, stats, nil
}
