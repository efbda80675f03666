package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/simrec/internal/artifact"
	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/internal/embedding"
	"github.com/hyperjump/simrec/internal/storage"
	"github.com/hyperjump/simrec/internal/vector"
)

const corpus = `{"id": "materials/1.pdf", "contents": "Linear algebra: vectors, matrices and determinants."}
{"id": "materials/2.pdf", "contents": "Integration by parts and substitution rules."}
{"id": "materials/3.pdf", "contents": "Eigenvalues and eigenvectors of square matrices."}
not json at all
{"id": "materials/4.pdf", "contents": "Limits and continuity of real functions."}
{"id": "materials/5.pdf", "contents": "   "}
`

func testConfig(dir string) *config.Config {
	cfg := &config.Config{}
	cfg.Pipeline.ArtifactDir = filepath.Join(dir, "artifacts")
	cfg.Pipeline.Workers = 2
	cfg.Similarity.TopN = 2
	cfg.Embedding.MaxTokens = 64
	return cfg
}

func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewMemoryStore()
	p := New(testConfig(dir), WithEmbedder(embedding.NewMockEmbedder(16)), WithStore(store))

	res, err := p.Run(context.Background(), writeCorpus(t, dir), "mathe")
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.Embed.Stats.Embedded)
	assert.Equal(t, 1, res.Embed.Stats.Skipped)
	assert.Equal(t, 4, res.Build.Items)
	assert.Equal(t, 2, res.Build.N)
	assert.Equal(t, 4, res.Ingested)
	assert.Equal(t, artifact.NeighborsFile(p.ArtifactDir(), "mathe", 2), res.Build.NeighborsPath)

	items, err := store.ListItems(context.Background(), "mathe")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.pdf", "2.pdf", "3.pdf", "4.pdf"}, items)

	lists, err := artifact.ReadNeighbors(res.Build.NeighborsPath)
	require.NoError(t, err)
	assert.Empty(t, vector.CheckNeighborLists(lists, 2))
	for id, neighbors := range lists {
		recs, err := store.Get(context.Background(), "mathe", id)
		require.NoError(t, err)
		assert.ElementsMatch(t, neighbors, recs.IDs)
	}
}

func TestNew_WorkerSettings(t *testing.T) {
	cfg := &config.Config{}
	cfg.Pipeline.Workers = 2
	config.ApplyDefaults(cfg)

	p := New(cfg)
	assert.Equal(t, 2, p.embedWorkers)
	assert.Equal(t, cfg.Similarity.Workers, p.buildWorkers)

	cfg.Similarity.Workers = 3
	p = New(cfg)
	assert.Equal(t, 2, p.embedWorkers)
	assert.Equal(t, 3, p.buildWorkers)
}

func TestStagesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	ctx := context.Background()

	embedded, err := New(cfg, WithEmbedder(embedding.NewMockEmbedder(8))).Embed(ctx, writeCorpus(t, dir), "mathe")
	require.NoError(t, err)
	assert.FileExists(t, embedded.EmbeddingsPath)
	assert.FileExists(t, embedded.IndexMapPath)

	index, err := artifact.ReadIndexMap(embedded.IndexMapPath)
	require.NoError(t, err)
	assert.Equal(t, "1.pdf", index[0])

	built, err := New(cfg).Build(ctx, "mathe")
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	n, err := New(cfg, WithStore(store)).Ingest(ctx, built.NeighborsPath, "")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	namespaces, err := store.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mathe"}, namespaces)
}

func TestBuildIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	ctx := context.Background()
	_, err := New(cfg, WithEmbedder(embedding.NewMockEmbedder(8))).Embed(ctx, writeCorpus(t, dir), "mathe")
	require.NoError(t, err)

	first, err := New(cfg).Build(ctx, "mathe")
	require.NoError(t, err)
	a, err := os.ReadFile(first.NeighborsPath)
	require.NoError(t, err)

	cfg.Similarity.Workers = 1
	second, err := New(cfg).Build(ctx, "mathe")
	require.NoError(t, err)
	b, err := os.ReadFile(second.NeighborsPath)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEmbed_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	ctx := context.Background()

	_, err := New(cfg).Embed(ctx, writeCorpus(t, dir), "mathe")
	assert.ErrorContains(t, err, "no embedder")

	p := New(cfg, WithEmbedder(embedding.NewMockEmbedder(8)))
	_, err = p.Embed(ctx, filepath.Join(dir, "missing.jsonl"), "mathe")
	assert.Error(t, err)

	_, err = p.Embed(ctx, writeCorpus(t, dir), "bad:ns")
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.jsonl")
	require.NoError(t, os.WriteFile(empty, []byte(`{"id":"a","contents":""}`+"\n"), 0644))
	_, err = p.Embed(ctx, empty, "mathe")
	assert.ErrorContains(t, err, "no item could be embedded")
}

func TestBuild_MissingArtifacts(t *testing.T) {
	_, err := New(testConfig(t.TempDir())).Build(context.Background(), "mathe")
	assert.Error(t, err)
}

func TestIngest_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := New(testConfig(dir)).Ingest(context.Background(), "x.json", "mathe")
	assert.ErrorContains(t, err, "no store")

	path := filepath.Join(dir, "broken_top20_recommendations.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": "not-a-list"}`), 0644))
	_, err = New(testConfig(dir), WithStore(storage.NewMemoryStore())).Ingest(context.Background(), path, "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), path))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(testConfig(dir), WithEmbedder(embedding.NewMockEmbedder(8)))
	_, err := p.Run(ctx, writeCorpus(t, dir), "mathe")
	assert.ErrorIs(t, err, context.Canceled)
}
