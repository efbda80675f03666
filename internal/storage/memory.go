package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process RecommendationStore. Used in tests and for serving
// small datasets without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	sets   map[string]map[string][]string // namespace -> item -> sorted members
	closed bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]map[string][]string)}
}

func (s *MemoryStore) Ingest(ctx context.Context, namespace string, lists map[string][]string) (int, error) {
	if err := validateLists(namespace, lists); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}
	ns, ok := s.sets[namespace]
	if !ok {
		ns = make(map[string][]string, len(lists))
		s.sets[namespace] = ns
	}
	for id, members := range lists {
		ns[id] = normalizeSet(members)
	}
	return len(lists), nil
}

func (s *MemoryStore) Get(ctx context.Context, namespace, itemID string) (Recommendations, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Recommendations{}, ErrStoreUnavailable
	}
	members, ok := s.sets[namespace][itemID]
	if !ok {
		return Recommendations{}, ErrItemNotFound
	}
	return Recommendations{
		Namespace: namespace,
		ItemID:    itemID,
		IDs:       append(make([]string, 0, len(members)), members...),
	}, nil
}

func (s *MemoryStore) ListItems(ctx context.Context, namespace string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	ids := make([]string, 0, len(s.sets[namespace]))
	for id := range s.sets[namespace] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) ListNamespaces(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	out := make([]string, 0, len(s.sets))
	for ns, items := range s.sets {
		if len(items) > 0 {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) FindReferrers(ctx context.Context, namespace, itemID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	out := []string{}
	for id, members := range s.sets[namespace] {
		if containsSorted(members, itemID) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) CheckConnection(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
