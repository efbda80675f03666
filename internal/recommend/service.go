// Package recommend answers item-to-item recommendation queries against a
// RecommendationStore. It owns request validation and the mapping from store
// results to not-found outcomes; transport concerns live in the server package.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/internal/models"
	"github.com/hyperjump/simrec/internal/storage"
)

var (
	// ErrDatasetNotFound is returned when the dataset is not a namespace in the store
	// or not in the configured dataset list.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrItemNotFound is returned when the item is absent or has an empty recommendation set.
	ErrItemNotFound = errors.New("item not found")
)

// Options holds query defaults.
type Options struct {
	DefaultN int
	MaxN     int
	// Datasets restricts queries to these namespaces. Empty allows any namespace in the store.
	Datasets []string
}

// OptionsFromConfig converts the recommend config section.
func OptionsFromConfig(cfg config.RecommendConfig) Options {
	return Options{DefaultN: cfg.DefaultN, MaxN: cfg.MaxN, Datasets: cfg.Datasets}
}

// Service answers recommendation queries.
type Service struct {
	store     storage.RecommendationStore
	opts      Options
	validator *requestValidator
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a Service over store. Zero DefaultN and MaxN fall back to 10 and 20.
func NewService(store storage.RecommendationStore, opts Options, options ...Option) *Service {
	if opts.MaxN <= 0 {
		opts.MaxN = 20
	}
	if opts.DefaultN <= 0 {
		opts.DefaultN = min(10, opts.MaxN)
	}
	s := &Service{
		store:     store,
		opts:      opts,
		validator: newRequestValidator(opts.MaxN),
		logger:    zap.NewNop(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options returns the effective query defaults.
func (s *Service) Options() Options {
	return s.opts
}

// Recommend returns up to N members of the item's recommendation set, taken from the
// set in lexical order. N == 0 means Options.DefaultN.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (*models.RecommendResponse, error) {
	if err := s.validator.validate(req); err != nil {
		return nil, err
	}
	n := req.N
	if n == 0 {
		n = s.opts.DefaultN
	}
	if err := s.requireDataset(ctx, req.Dataset); err != nil {
		return nil, err
	}

	recs, err := s.store.Get(ctx, req.Dataset, req.IID)
	if errors.Is(err, storage.ErrItemNotFound) || (err == nil && recs.Empty()) {
		s.logger.Warn("item not found", zap.String("dataset", req.Dataset), zap.String("iid", req.IID))
		return nil, fmt.Errorf("%w: item ID '%s' not found in dataset '%s'", ErrItemNotFound, req.IID, req.Dataset)
	}
	if err != nil {
		return nil, err
	}

	ids := recs.IDs
	if len(ids) > n {
		ids = ids[:n]
	}
	s.logger.Info("returning recommendations",
		zap.String("dataset", req.Dataset), zap.String("iid", req.IID), zap.Int("count", len(ids)))
	return &models.RecommendResponse{Dataset: req.Dataset, IID: req.IID, Recommendations: ids}, nil
}

// Referrers returns the items that recommend iid. An unknown iid yields an empty list.
func (s *Service) Referrers(ctx context.Context, dataset, iid string) (*models.ReferrersResponse, error) {
	if err := s.validator.validate(RecommendRequest{Dataset: dataset, IID: iid}); err != nil {
		return nil, err
	}
	if err := s.requireDataset(ctx, dataset); err != nil {
		return nil, err
	}
	refs, err := s.store.FindReferrers(ctx, dataset, iid)
	if err != nil {
		return nil, err
	}
	return &models.ReferrersResponse{Dataset: dataset, IID: iid, Referrers: refs}, nil
}

// Items lists the item ids stored for dataset.
func (s *Service) Items(ctx context.Context, dataset string) ([]string, error) {
	if err := s.requireDataset(ctx, dataset); err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, dataset)
}

// Datasets lists the namespaces that can be queried.
func (s *Service) Datasets(ctx context.Context) ([]string, error) {
	namespaces, err := s.store.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	if len(s.opts.Datasets) == 0 {
		return namespaces, nil
	}
	out := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		if slices.Contains(s.opts.Datasets, ns) {
			out = append(out, ns)
		}
	}
	return out, nil
}

// Health checks store reachability and counts the queryable datasets.
func (s *Service) Health(ctx context.Context) (*models.HealthResponse, error) {
	if !s.store.CheckConnection(ctx) {
		s.logger.Error("health check failed: store is unreachable")
		return nil, fmt.Errorf("%w: database connection failed", storage.ErrStoreUnavailable)
	}
	datasets, err := s.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return &models.HealthResponse{Status: "ok", Database: "connected", AvailableDatasets: len(datasets)}, nil
}

func (s *Service) requireDataset(ctx context.Context, dataset string) error {
	if len(s.opts.Datasets) > 0 && !slices.Contains(s.opts.Datasets, dataset) {
		s.logger.Warn("dataset not supported", zap.String("dataset", dataset))
		return fmt.Errorf("%w: dataset '%s' not found", ErrDatasetNotFound, dataset)
	}
	namespaces, err := s.store.ListNamespaces(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(namespaces, dataset) {
		s.logger.Warn("dataset not found", zap.String("dataset", dataset))
		return fmt.Errorf("%w: dataset '%s' not found", ErrDatasetNotFound, dataset)
	}
	return nil
}
