package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/internal/storage"
)

func newTestService(t *testing.T, opts Options) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	_, err := store.Ingest(context.Background(), "mathe", map[string][]string{
		"1.pdf": {"2.pdf", "3.pdf", "4.pdf"},
		"2.pdf": {"1.pdf"},
		"3.pdf": {},
		"4.pdf": {"1.pdf", "2.pdf"},
	})
	require.NoError(t, err)
	_, err = store.Ingest(context.Background(), "zbmath", map[string][]string{"x": {"y"}})
	require.NoError(t, err)
	return NewService(store, opts), store
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(storage.NewMemoryStore(), Options{})
	assert.Equal(t, 10, s.Options().DefaultN)
	assert.Equal(t, 20, s.Options().MaxN)

	s = NewService(storage.NewMemoryStore(), Options{MaxN: 5})
	assert.Equal(t, 5, s.Options().DefaultN)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.RecommendConfig{DefaultN: 3, MaxN: 7, Datasets: []string{"mathe"}})
	assert.Equal(t, Options{DefaultN: 3, MaxN: 7, Datasets: []string{"mathe"}}, opts)
}

func TestRecommend(t *testing.T) {
	s, _ := newTestService(t, Options{})
	resp, err := s.Recommend(context.Background(), RecommendRequest{Dataset: "mathe", IID: "1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "mathe", resp.Dataset)
	assert.Equal(t, "1.pdf", resp.IID)
	assert.ElementsMatch(t, []string{"2.pdf", "3.pdf", "4.pdf"}, resp.Recommendations)
}

func TestRecommend_TruncatesToN(t *testing.T) {
	s, _ := newTestService(t, Options{})
	resp, err := s.Recommend(context.Background(), RecommendRequest{Dataset: "mathe", IID: "1.pdf", N: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Recommendations, 2)
	for _, id := range resp.Recommendations {
		assert.Contains(t, []string{"2.pdf", "3.pdf", "4.pdf"}, id)
	}
}

func TestRecommend_DefaultN(t *testing.T) {
	s, _ := newTestService(t, Options{DefaultN: 1})
	resp, err := s.Recommend(context.Background(), RecommendRequest{Dataset: "mathe", IID: "1.pdf"})
	require.NoError(t, err)
	assert.Len(t, resp.Recommendations, 1)
}

func TestRecommend_NotFound(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()

	_, err := s.Recommend(ctx, RecommendRequest{Dataset: "unknown", IID: "1.pdf"})
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	_, err = s.Recommend(ctx, RecommendRequest{Dataset: "mathe", IID: "missing.pdf"})
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = s.Recommend(ctx, RecommendRequest{Dataset: "mathe", IID: "3.pdf"})
	assert.ErrorIs(t, err, ErrItemNotFound, "an explicit empty set is reported as not found")
}

func TestRecommend_DatasetAllowList(t *testing.T) {
	s, _ := newTestService(t, Options{Datasets: []string{"mathe"}})
	_, err := s.Recommend(context.Background(), RecommendRequest{Dataset: "zbmath", IID: "x"})
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	_, err = s.Recommend(context.Background(), RecommendRequest{Dataset: "mathe", IID: "2.pdf"})
	assert.NoError(t, err)
}

func TestRecommend_Validation(t *testing.T) {
	s, _ := newTestService(t, Options{})
	tests := []struct {
		name string
		req  RecommendRequest
		loc  string
		typ  string
	}{
		{"missing dataset", RecommendRequest{IID: "1.pdf"}, "dataset", "missing"},
		{"missing iid", RecommendRequest{Dataset: "mathe"}, "iid", "missing"},
		{"n too large", RecommendRequest{Dataset: "mathe", IID: "1.pdf", N: 21}, "n", "less_than_equal"},
		{"negative n", RecommendRequest{Dataset: "mathe", IID: "1.pdf", N: -1}, "n", "greater_than_equal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Recommend(context.Background(), tt.req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, []string{"query", tt.loc}, verr.Fields[0].Loc)
			assert.Equal(t, tt.typ, verr.Fields[0].Type)
			assert.NotEmpty(t, verr.Fields[0].Msg)
		})
	}
}

func TestRecommend_ValidationReportsAllFields(t *testing.T) {
	s, _ := newTestService(t, Options{})
	_, err := s.Recommend(context.Background(), RecommendRequest{N: 50})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, verr.Error(), "query.n")
}

func TestRecommend_NAtMaxIsValid(t *testing.T) {
	s, _ := newTestService(t, Options{})
	_, err := s.Recommend(context.Background(), RecommendRequest{Dataset: "mathe", IID: "1.pdf", N: 20})
	assert.NoError(t, err)
}

func TestReferrers(t *testing.T) {
	s, _ := newTestService(t, Options{})
	resp, err := s.Referrers(context.Background(), "mathe", "1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.pdf", "4.pdf"}, resp.Referrers)

	_, err = s.Referrers(context.Background(), "nope", "1.pdf")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestItemsAndDatasets(t *testing.T) {
	s, _ := newTestService(t, Options{})
	items, err := s.Items(context.Background(), "mathe")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.pdf", "2.pdf", "3.pdf", "4.pdf"}, items)

	ds, err := s.Datasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mathe", "zbmath"}, ds)

	restricted, _ := newTestService(t, Options{Datasets: []string{"zbmath", "other"}})
	ds, err = restricted.Datasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"zbmath"}, ds)
}

func TestHealth(t *testing.T) {
	s, store := newTestService(t, Options{})
	h, err := s.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Database)
	assert.Equal(t, 2, h.AvailableDatasets)

	require.NoError(t, store.Close())
	_, err = s.Health(context.Background())
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}

func TestRecommend_StoreFailure(t *testing.T) {
	s, store := newTestService(t, Options{})
	require.NoError(t, store.Close())
	_, err := s.Recommend(context.Background(), RecommendRequest{Dataset: "mathe", IID: "1.pdf"})
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}
