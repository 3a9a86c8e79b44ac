// Package postgres provides a Postgres-backed record store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dashwatch/votd-archive/internal/votd"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool behind the store.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store persists the dataset in one table, preserving record order through
// an explicit position column.
type Store struct {
	pool  pool
	table string
}

// New creates a Postgres-backed store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "votd_records"
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
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "votd_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Load reads the full dataset in persisted order. An empty table yields an
// empty dataset.
func (s *Store) Load(ctx context.Context) (votd.Dataset, error) {
	query := fmt.Sprintf(`
SELECT
	date,
	author_display_name,
	title,
	view_count,
	number_of_favorites,
	viz_link,
	shape_reference
FROM %s
ORDER BY position`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return votd.Dataset{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var ds votd.Dataset
	for rows.Next() {
		var rec votd.Record
		var vizLink, shapeRef *string
		if err := rows.Scan(
			&rec.Date,
			&rec.AuthorDisplayName,
			&rec.Title,
			&rec.ViewCount,
			&rec.NumberOfFavorites,
			&vizLink,
			&shapeRef,
		); err != nil {
			return votd.Dataset{}, fmt.Errorf("scan record: %w", err)
		}
		if vizLink != nil {
			rec.VizLink = *vizLink
		}
		if shapeRef != nil {
			rec.ShapeReference = *shapeRef
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return votd.Dataset{}, fmt.Errorf("iterate records: %w", err)
	}
	return ds, nil
}

// Save replaces the stored dataset wholesale inside one transaction, so a
// failed save never leaves a partial dataset behind.
func (s *Store) Save(ctx context.Context, d votd.Dataset) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	insert := fmt.Sprintf(`
INSERT INTO %s (
	position,
	date,
	author_display_name,
	title,
	view_count,
	number_of_favorites,
	viz_link,
	shape_reference
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, s.table)

	for i, rec := range d.Records {
		args := []any{
			i,
			rec.Date,
			rec.AuthorDisplayName,
			rec.Title,
			rec.ViewCount,
			rec.NumberOfFavorites,
			nullable(rec.VizLink),
			nullable(rec.ShapeReference),
		}
		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
