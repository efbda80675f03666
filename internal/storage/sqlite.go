package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore implements RecommendationStore using SQLite. A known item has a row in
// recommendation_keys; its members are rows in recommendation_members. Each Ingest runs in
// one transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recommendation_keys (
		namespace TEXT NOT NULL,
		item_id TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, item_id)
	);

	CREATE TABLE IF NOT EXISTS recommendation_members (
		namespace TEXT NOT NULL,
		item_id TEXT NOT NULL,
		member TEXT NOT NULL,
		PRIMARY KEY (namespace, item_id, member),
		FOREIGN KEY (namespace, item_id) REFERENCES recommendation_keys(namespace, item_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_members_member ON recommendation_members(namespace, member);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) Ingest(ctx context.Context, namespace string, lists map[string][]string) (int, error) {
	if err := validateLists(namespace, lists); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	upsertKey, err := tx.PrepareContext(ctx,
		`INSERT INTO recommendation_keys (namespace, item_id, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(namespace, item_id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, err
	}
	defer upsertKey.Close()
	clearMembers, err := tx.PrepareContext(ctx,
		`DELETE FROM recommendation_members WHERE namespace = ? AND item_id = ?`)
	if err != nil {
		return 0, err
	}
	defer clearMembers.Close()
	insertMember, err := tx.PrepareContext(ctx,
		`INSERT INTO recommendation_members (namespace, item_id, member) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer insertMember.Close()

	for id, members := range lists {
		if _, err := upsertKey.ExecContext(ctx, namespace, id); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", Key(namespace, id), err)
		}
		if _, err := clearMembers.ExecContext(ctx, namespace, id); err != nil {
			return 0, fmt.Errorf("clear %s: %w", Key(namespace, id), err)
		}
		for _, m := range normalizeSet(members) {
			if _, err := insertMember.ExecContext(ctx, namespace, id, m); err != nil {
				return 0, fmt.Errorf("insert member of %s: %w", Key(namespace, id), err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}
	s.logger.Debug("ingested recommendation sets", zap.String("namespace", namespace), zap.Int("count", len(lists)))
	return len(lists), nil
}

func (s *SQLiteStore) Get(ctx context.Context, namespace, itemID string) (Recommendations, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM recommendation_keys WHERE namespace = ? AND item_id = ?`, namespace, itemID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return Recommendations{}, ErrItemNotFound
	}
	if err != nil {
		return Recommendations{}, err
	}
	members, err := s.queryStrings(ctx,
		`SELECT member FROM recommendation_members WHERE namespace = ? AND item_id = ? ORDER BY member`,
		namespace, itemID)
	if err != nil {
		return Recommendations{}, err
	}
	return Recommendations{Namespace: namespace, ItemID: itemID, IDs: members}, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, namespace string) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT item_id FROM recommendation_keys WHERE namespace = ? ORDER BY item_id`, namespace)
}

func (s *SQLiteStore) ListNamespaces(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT DISTINCT namespace FROM recommendation_keys ORDER BY namespace`)
}

func (s *SQLiteStore) FindReferrers(ctx context.Context, namespace, itemID string) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT item_id FROM recommendation_members WHERE namespace = ? AND member = ? ORDER BY item_id`,
		namespace, itemID)
}

func (s *SQLiteStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CheckConnection(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
