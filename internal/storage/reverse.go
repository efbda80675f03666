package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ReverseIndexed wraps a store with an in-memory member -> referrers index so
// FindReferrers does not scan the namespace. The index is built from the wrapped store at
// construction and updated by every Ingest made through the wrapper.
//
// A failed Ingest may have written part of the batch (badger flushes in chunks). The
// affected items are then re-read from the wrapped store; if that also fails the
// namespace is marked stale and FindReferrers falls back to the wrapped store for it.
type ReverseIndexed struct {
	RecommendationStore
	mu        sync.RWMutex
	forward   map[string]map[string][]string            // namespace -> item -> members
	referrers map[string]map[string]map[string]struct{} // namespace -> member -> referrers
	stale     map[string]bool
}

// WithReverseIndex scans store and returns it wrapped with a reverse index.
func WithReverseIndex(ctx context.Context, store RecommendationStore) (*ReverseIndexed, error) {
	r := &ReverseIndexed{
		RecommendationStore: store,
		forward:             make(map[string]map[string][]string),
		referrers:           make(map[string]map[string]map[string]struct{}),
		stale:               make(map[string]bool),
	}
	namespaces, err := store.ListNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("build reverse index: %w", err)
	}
	for _, ns := range namespaces {
		ids, err := store.ListItems(ctx, ns)
		if err != nil {
			return nil, fmt.Errorf("build reverse index for %s: %w", ns, err)
		}
		for _, id := range ids {
			recs, err := store.Get(ctx, ns, id)
			if err != nil {
				return nil, fmt.Errorf("build reverse index for %s: %w", Key(ns, id), err)
			}
			r.set(ns, id, recs.IDs)
		}
	}
	return r, nil
}

// Ingest writes through to the wrapped store and then updates the index.
func (r *ReverseIndexed) Ingest(ctx context.Context, namespace string, lists map[string][]string) (int, error) {
	n, err := r.RecommendationStore.Ingest(ctx, namespace, lists)
	if err != nil {
		r.resync(ctx, namespace, lists)
		return n, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, members := range lists {
		r.set(namespace, id, normalizeSet(members))
	}
	return n, nil
}

// resync reloads the items of a failed ingest from the wrapped store.
func (r *ReverseIndexed) resync(ctx context.Context, namespace string, lists map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range lists {
		recs, err := r.RecommendationStore.Get(ctx, namespace, id)
		switch {
		case err == nil:
			r.set(namespace, id, recs.IDs)
		case errors.Is(err, ErrItemNotFound):
			r.remove(namespace, id)
		default:
			r.stale[namespace] = true
			return
		}
	}
}

// FindReferrers answers from the index, or from the wrapped store for a stale namespace.
func (r *ReverseIndexed) FindReferrers(ctx context.Context, namespace, itemID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stale[namespace] {
		return r.RecommendationStore.FindReferrers(ctx, namespace, itemID)
	}
	refs := r.referrers[namespace][itemID]
	out := make([]string, 0, len(refs))
	for id := range refs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// set replaces item's contribution to the index. Callers hold mu or own r exclusively.
func (r *ReverseIndexed) set(namespace, itemID string, members []string) {
	fwd, ok := r.forward[namespace]
	if !ok {
		fwd = make(map[string][]string)
		r.forward[namespace] = fwd
	}
	rev, ok := r.referrers[namespace]
	if !ok {
		rev = make(map[string]map[string]struct{})
		r.referrers[namespace] = rev
	}
	for _, old := range fwd[itemID] {
		delete(rev[old], itemID)
		if len(rev[old]) == 0 {
			delete(rev, old)
		}
	}
	fwd[itemID] = members
	for _, m := range members {
		if rev[m] == nil {
			rev[m] = make(map[string]struct{})
		}
		rev[m][itemID] = struct{}{}
	}
}

// remove drops item from the index. Callers hold mu.
func (r *ReverseIndexed) remove(namespace, itemID string) {
	r.set(namespace, itemID, nil)
	delete(r.forward[namespace], itemID)
}
