// Package postgres provides a Postgres-backed snapshot store as an
// alternative to the per-topic YAML files.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/news"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SnapshotStoreConfig controls the Postgres connection pool used for
// snapshot rows.
type SnapshotStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// SnapshotStore persists each topic's article list as ordered rows in one
// table. Expected schema:
//
//	CREATE TABLE snapshots (
//	    topic        TEXT    NOT NULL,
//	    position     INT     NOT NULL,
//	    title        TEXT    NOT NULL,
//	    description  TEXT    NOT NULL,
//	    url          TEXT    NOT NULL,
//	    published_on TEXT    NOT NULL,
//	    source       TEXT    NOT NULL,
//	    PRIMARY KEY (topic, position)
//	);
type SnapshotStore struct {
	pool   querier
	table  string
	logger *zap.Logger
}

// New creates a Postgres-backed SnapshotStore using the provided config.
func New(ctx context.Context, cfg SnapshotStoreConfig, logger *zap.Logger) (*SnapshotStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{pool: pool, table: table, logger: logger}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier, table string, logger *zap.Logger) (*SnapshotStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{pool: pool, table: table, logger: logger}, nil
}

// Close releases the underlying pool resources.
func (s *SnapshotStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Load returns the stored articles for a topic in snapshot order. Query
// problems are logged and yield an empty collection, matching the
// fail-open contract of the file store.
func (s *SnapshotStore) Load(ctx context.Context, topicID string) []news.Article {
	if s == nil || s.pool == nil {
		return nil
	}
	query := fmt.Sprintf(
		`SELECT title, description, url, published_on, source FROM %s WHERE topic = $1 ORDER BY position`,
		s.table,
	)
	rows, err := s.pool.Query(ctx, query, topicID)
	if err != nil {
		s.logger.Warn("load snapshot failed, treating cache as empty",
			zap.String("topic", topicID), zap.Error(err))
		return nil
	}
	defer rows.Close()

	var items []news.Article
	for rows.Next() {
		var a news.Article
		if err := rows.Scan(&a.Title, &a.Description, &a.URL, &a.Date, &a.Source); err != nil {
			s.logger.Warn("scan snapshot row failed, treating cache as empty",
				zap.String("topic", topicID), zap.Error(err))
			return nil
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("iterate snapshot rows failed, treating cache as empty",
			zap.String("topic", topicID), zap.Error(err))
		return nil
	}
	return items
}

// Save replaces the topic's rows in a single transaction so a concurrent
// Load sees either the old snapshot or the new one, never a mixture.
func (s *SnapshotStore) Save(ctx context.Context, topicID string, items []news.Article) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("snapshot store is not configured")
	}
	if topicID == "" {
		return fmt.Errorf("topic id is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	deleteSQL := fmt.Sprintf(`DELETE FROM %s WHERE topic = $1`, s.table)
	if _, err := tx.Exec(ctx, deleteSQL, topicID); err != nil {
		return fmt.Errorf("clear snapshot for %s: %w", topicID, err)
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (topic, position, title, description, url, published_on, source) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.table,
	)
	for i, a := range items {
		if _, err := tx.Exec(ctx, insertSQL, topicID, i, a.Title, a.Description, a.URL, a.Date, a.Source); err != nil {
			return fmt.Errorf("insert snapshot row for %s: %w", topicID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot for %s: %w", topicID, err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("topic", topicID),
		zap.Int("articles", len(items)),
	)
	return nil
}
