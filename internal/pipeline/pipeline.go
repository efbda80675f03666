// Package pipeline runs the offline stages that turn a corpus into served recommendations:
// embed (corpus -> embedding matrix), build (matrix -> top-N neighbor lists) and
// ingest (neighbor lists -> store). Stages communicate only through artifact files, so
// each can be rerun on its own.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/artifact"
	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/internal/embedding"
	"github.com/hyperjump/simrec/internal/metrics"
	"github.com/hyperjump/simrec/internal/storage"
	"github.com/hyperjump/simrec/internal/vector"
)

// Pipeline holds the collaborators shared by the stages. Embedder is only needed by
// Embed and store only by Ingest.
type Pipeline struct {
	artifactDir  string
	topN         int
	embedWorkers int
	buildWorkers int
	maxTokens    int
	embedder     embedding.Embedder
	store        storage.RecommendationStore
	logger       *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEmbedder sets the embedder used by Embed.
func WithEmbedder(e embedding.Embedder) Option {
	return func(p *Pipeline) { p.embedder = e }
}

// WithStore sets the store written by Ingest.
func WithStore(s storage.RecommendationStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Pipeline configured from cfg.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		artifactDir:  cfg.Pipeline.ArtifactDir,
		topN:         cfg.Similarity.TopN,
		embedWorkers: cfg.Pipeline.Workers,
		buildWorkers: cfg.Similarity.Workers,
		maxTokens:    cfg.Embedding.MaxTokens,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ArtifactDir returns the directory stage outputs are written to.
func (p *Pipeline) ArtifactDir() string {
	return p.artifactDir
}

// EmbedResult describes the artifacts written by Embed.
type EmbedResult struct {
	Namespace      string                 `json:"namespace"`
	EmbeddingsPath string                 `json:"embeddings_path"`
	IndexMapPath   string                 `json:"index_map_path"`
	Stats          *embedding.CorpusStats `json:"stats"`
}

// Embed reads the corpus at corpusPath, encodes every item, and writes the embedding
// matrix and index map for namespace.
func (p *Pipeline) Embed(ctx context.Context, corpusPath, namespace string) (*EmbedResult, error) {
	return p.embed(ctx, p.logger, corpusPath, namespace)
}

func (p *Pipeline) embed(ctx context.Context, logger *zap.Logger, corpusPath, namespace string) (*EmbedResult, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("embed: no embedder configured")
	}
	if err := artifact.ValidateNamespace(namespace); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	logger = logger.With(zap.String("stage", "embed"), zap.String("namespace", namespace))
	start := time.Now()

	items, err := artifact.ReadCorpus(corpusPath, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("corpus loaded", zap.String("path", corpusPath), zap.Int("records", len(items)))

	enc := embedding.NewEncoder(p.embedder, p.maxTokens,
		embedding.WithWorkers(p.embedWorkers), embedding.WithLogger(logger))
	m, stats, err := enc.EncodeCorpus(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", namespace, err)
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("embed %s: no item could be embedded", namespace)
	}
	logger.Info("token length stats",
		zap.Float64("avg", stats.AvgTokens),
		zap.Float64("median", stats.MedianTokens),
		zap.Int("max", stats.MaxTokens),
		zap.Int("over_limit", stats.OverLimit),
		zap.Int("limit", p.maxTokens),
	)

	if err := os.MkdirAll(p.artifactDir, 0755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	res := &EmbedResult{
		Namespace:      namespace,
		EmbeddingsPath: artifact.EmbeddingsFile(p.artifactDir, namespace),
		IndexMapPath:   artifact.IndexMapFile(p.artifactDir, namespace),
		Stats:          stats,
	}
	if err := vector.SaveMatrix(res.EmbeddingsPath, m); err != nil {
		return nil, err
	}
	if err := artifact.WriteIndexMap(res.IndexMapPath, m.IndexMap()); err != nil {
		return nil, err
	}

	metrics.RecordPipelineItems("embedded", stats.Embedded)
	metrics.RecordPipelineItems("chunked", stats.Chunked)
	metrics.RecordPipelineItems("skipped", stats.Skipped)
	metrics.RecordPipelineItems("duplicate", stats.Duplicates)
	metrics.RecordStage("embed", time.Since(start))
	logger.Info("embeddings saved",
		zap.String("path", res.EmbeddingsPath),
		zap.Int("rows", m.Len()),
		zap.Int("dimensions", m.Dimensions),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// BuildResult describes the neighbor lists written by Build.
type BuildResult struct {
	Namespace     string `json:"namespace"`
	NeighborsPath string `json:"neighbors_path"`
	Items         int    `json:"items"`
	N             int    `json:"n"`
}

// Build loads the embedding artifacts for namespace, ranks neighbors and writes the
// top-N lists. Lists that break the neighbor invariants abort the stage.
func (p *Pipeline) Build(ctx context.Context, namespace string) (*BuildResult, error) {
	return p.build(ctx, p.logger, namespace)
}

func (p *Pipeline) build(ctx context.Context, logger *zap.Logger, namespace string) (*BuildResult, error) {
	if err := artifact.ValidateNamespace(namespace); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	logger = logger.With(zap.String("stage", "build"), zap.String("namespace", namespace))
	start := time.Now()

	index, err := artifact.ReadIndexMap(artifact.IndexMapFile(p.artifactDir, namespace))
	if err != nil {
		return nil, err
	}
	m, err := vector.LoadMatrix(artifact.EmbeddingsFile(p.artifactDir, namespace), index)
	if err != nil {
		return nil, err
	}
	top, err := vector.BuildTopN(ctx, m, p.topN, vector.WithWorkers(p.buildWorkers), vector.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", namespace, err)
	}
	if violations := vector.CheckNeighborLists(top.Neighbors, top.N); len(violations) > 0 {
		parts := make([]string, 0, len(violations))
		for _, v := range violations {
			parts = append(parts, v.String())
		}
		return nil, fmt.Errorf("build %s: invalid neighbor lists: %s", namespace, strings.Join(parts, "; "))
	}

	res := &BuildResult{
		Namespace:     namespace,
		NeighborsPath: artifact.NeighborsFile(p.artifactDir, namespace, top.N),
		Items:         len(top.Neighbors),
		N:             top.N,
	}
	if err := artifact.WriteNeighbors(res.NeighborsPath, top.Neighbors, top.OrderedIDs()); err != nil {
		return nil, err
	}
	metrics.RecordStage("build", time.Since(start))
	logger.Info("neighbor lists saved",
		zap.String("path", res.NeighborsPath),
		zap.Int("items", res.Items),
		zap.Int("n", res.N),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Ingest loads the neighbor lists at path into the store under namespace. An empty
// namespace is inferred from the file name.
func (p *Pipeline) Ingest(ctx context.Context, path, namespace string) (int, error) {
	return p.ingest(ctx, p.logger, path, namespace)
}

func (p *Pipeline) ingest(ctx context.Context, logger *zap.Logger, path, namespace string) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("ingest: no store configured")
	}
	if namespace == "" {
		ns, err := artifact.NamespaceFromFile(path)
		if err != nil {
			return 0, fmt.Errorf("ingest: %w", err)
		}
		namespace = ns
	}
	start := time.Now()
	lists, err := artifact.ReadNeighbors(path)
	if err != nil {
		return 0, err
	}
	n, err := p.store.Ingest(ctx, namespace, lists)
	if err != nil {
		return n, fmt.Errorf("ingest %s into %s: %w", path, namespace, err)
	}
	metrics.RecordIngest(namespace, n)
	metrics.RecordStage("ingest", time.Since(start))
	logger.Info("ingested recommendation sets",
		zap.String("stage", "ingest"),
		zap.String("namespace", namespace),
		zap.String("path", path),
		zap.Int("items", n),
	)
	return n, nil
}

// RunResult summarizes a full Run.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Embed    *EmbedResult  `json:"embed"`
	Build    *BuildResult  `json:"build"`
	Ingested int           `json:"ingested"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Run executes embed, build and, when a store is configured, ingest for one namespace.
func (p *Pipeline) Run(ctx context.Context, corpusPath, namespace string) (*RunResult, error) {
	res := &RunResult{RunID: uuid.NewString()}
	start := time.Now()
	logger := p.logger.With(zap.String("run_id", res.RunID))

	logger.Info("pipeline run started", zap.String("namespace", namespace), zap.String("corpus", corpusPath))
	var err error
	if res.Embed, err = p.embed(ctx, logger, corpusPath, namespace); err != nil {
		return nil, err
	}
	if res.Build, err = p.build(ctx, logger, namespace); err != nil {
		return nil, err
	}
	if p.store != nil {
		if res.Ingested, err = p.ingest(ctx, logger, res.Build.NeighborsPath, namespace); err != nil {
			return nil, err
		}
	}
	res.Elapsed = time.Since(start)
	logger.Info("pipeline run finished", zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
