// Package storage persists recommendation sets keyed by (namespace, item id).
//
// A set is unordered: ranking from the neighbor lists is not preserved, and members are
// returned sorted lexicographically. An item may be stored with an empty set, which is
// distinct from an item that was never ingested.
//
// Ingest replaces sets per item. Except for SQLiteStore, an ingest is not atomic across
// items, so a concurrent reader may observe a namespace mid-refresh.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// KeyPrefix is the first segment of every store key.
const KeyPrefix = "recommendations"

var (
	// ErrItemNotFound is returned by Get when no set was ever ingested for the item.
	ErrItemNotFound = errors.New("item not found")
	// ErrStoreUnavailable is returned when the backend cannot be reached or its breaker is open.
	ErrStoreUnavailable = errors.New("recommendation store unavailable")
	// ErrInvalidKey is returned for namespaces or item ids that cannot form a key.
	ErrInvalidKey = errors.New("invalid recommendation key")
)

// Recommendations is the stored set for one item. IDs may be empty when the item is
// known but has no neighbors.
type Recommendations struct {
	Namespace string
	ItemID    string
	IDs       []string
}

// Empty reports whether the item is known but has no recommendations.
func (r Recommendations) Empty() bool {
	return len(r.IDs) == 0
}

// RecommendationStore is a namespace-scoped set store for neighbor lists.
type RecommendationStore interface {
	// Ingest replaces the set of every item in lists and returns how many sets were written.
	// Items not present in lists are left untouched.
	Ingest(ctx context.Context, namespace string, lists map[string][]string) (int, error)
	// Get returns the set for an item, or ErrItemNotFound.
	Get(ctx context.Context, namespace, itemID string) (Recommendations, error)
	// ListItems returns the ids with a stored set in namespace, sorted.
	ListItems(ctx context.Context, namespace string) ([]string, error)
	// ListNamespaces returns every namespace holding at least one set, sorted.
	ListNamespaces(ctx context.Context) ([]string, error)
	// FindReferrers returns the items whose set contains itemID, sorted.
	FindReferrers(ctx context.Context, namespace, itemID string) ([]string, error)
	// CheckConnection reports whether the backend is reachable.
	CheckConnection(ctx context.Context) bool
	Close() error
}

// Key returns the store key for an item: "recommendations:<namespace>:<item_id>".
func Key(namespace, itemID string) string {
	return KeyPrefix + ":" + namespace + ":" + itemID
}

// NamespacePrefix returns the key prefix shared by every item in namespace.
func NamespacePrefix(namespace string) string {
	return KeyPrefix + ":" + namespace + ":"
}

// ParseKey splits a key produced by Key. The item id may itself contain ':'.
func ParseKey(key string) (namespace, itemID string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != KeyPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return parts[1], parts[2], nil
}

// ValidateKeyParts rejects an empty namespace, a namespace containing ':', or an empty item id.
func ValidateKeyParts(namespace, itemID string) error {
	if namespace == "" || strings.Contains(namespace, ":") {
		return fmt.Errorf("%w: namespace %q", ErrInvalidKey, namespace)
	}
	if itemID == "" {
		return fmt.Errorf("%w: empty item id in namespace %q", ErrInvalidKey, namespace)
	}
	return nil
}

func validateLists(namespace string, lists map[string][]string) error {
	if namespace == "" || strings.Contains(namespace, ":") {
		return fmt.Errorf("%w: namespace %q", ErrInvalidKey, namespace)
	}
	for id := range lists {
		if id == "" {
			return fmt.Errorf("%w: empty item id in namespace %q", ErrInvalidKey, namespace)
		}
	}
	return nil
}

// normalizeSet returns members deduplicated and sorted, never nil.
func normalizeSet(members []string) []string {
	out := make([]string, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func containsSorted(sorted []string, v string) bool {
	i := sort.SearchStrings(sorted, v)
	return i < len(sorted) && sorted[i] == v
}
