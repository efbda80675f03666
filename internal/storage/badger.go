package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// BadgerStore keeps one key per item using the Key pattern. The value is a JSON array of
// members; an empty array marks a known item without recommendations.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// NewBadgerStore opens (or creates) a BadgerDB database in dir.
func NewBadgerStore(dir string, logger *zap.Logger) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return NewBadgerStoreFromDB(db, logger), nil
}

// NewBadgerStoreFromDB wraps an already open database. The store takes ownership and
// closes db on Close.
func NewBadgerStoreFromDB(db *badger.DB, logger *zap.Logger) *BadgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgerStore{db: db, logger: logger}
}

func (s *BadgerStore) Ingest(ctx context.Context, namespace string, lists map[string][]string) (int, error) {
	if err := validateLists(namespace, lists); err != nil {
		return 0, err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for id, members := range lists {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, err := json.Marshal(normalizeSet(members))
		if err != nil {
			return 0, fmt.Errorf("marshal set %s: %w", id, err)
		}
		if err := wb.Set([]byte(Key(namespace, id)), data); err != nil {
			return 0, fmt.Errorf("set %s: %w", Key(namespace, id), err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush ingest batch: %w", err)
	}
	s.logger.Debug("ingested recommendation sets", zap.String("namespace", namespace), zap.Int("count", len(lists)))
	return len(lists), nil
}

func (s *BadgerStore) Get(ctx context.Context, namespace, itemID string) (Recommendations, error) {
	var members []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(namespace, itemID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", Key(namespace, itemID), err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &members)
		})
	})
	if err != nil {
		return Recommendations{}, err
	}
	if members == nil {
		members = []string{}
	}
	return Recommendations{Namespace: namespace, ItemID: itemID, IDs: members}, nil
}

func (s *BadgerStore) ListItems(ctx context.Context, namespace string) ([]string, error) {
	prefix := []byte(NamespacePrefix(namespace))
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *BadgerStore) ListNamespaces(ctx context.Context) ([]string, error) {
	prefix := []byte(KeyPrefix + ":")
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); {
			ns, _, err := ParseKey(string(it.Item().Key()))
			if err != nil {
				s.logger.Warn("skipping malformed key", zap.ByteString("key", it.Item().KeyCopy(nil)))
				it.Next()
				continue
			}
			out = append(out, ns)
			// Skip the rest of this namespace: ';' sorts right after ':'.
			it.Seek([]byte(KeyPrefix + ":" + ns + ";"))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *BadgerStore) FindReferrers(ctx context.Context, namespace, itemID string) ([]string, error) {
	prefix := []byte(NamespacePrefix(namespace))
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var members []string
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &members)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			if containsSorted(members, itemID) {
				out = append(out, strings.TrimPrefix(string(item.Key()), string(prefix)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *BadgerStore) CheckConnection(ctx context.Context) bool {
	if s.db.IsClosed() {
		return false
	}
	return s.db.View(func(txn *badger.Txn) error { return nil }) == nil
}

func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
