package database

import (
	"context"
	"database/sql"
	"fmt"

	"folio/internal/database/migrations"
	"folio/internal/folio"
)

// Store implements folio.Store over database/sql. Queries are written with
// '?' placeholders and rebound for Postgres.
type Store struct {
	db      *sql.DB
	dialect migrations.Dialect
	path    string
}

var _ folio.Store = (*Store)(nil)

// NewStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewStoreFromDB(db *sql.DB, dialect migrations.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) bind(query string) string {
	if s.dialect == migrations.Postgres {
		return rebind(query)
	}
	return query
}

func (s *Store) exec(ctx context.Context, q queryer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.bind(query), args...)
}

func (s *Store) query(ctx context.Context, q queryer, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.bind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q queryer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.bind(query), args...)
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL dialect the store speaks.
func (s *Store) Dialect() migrations.Dialect {
	return s.dialect
}

// Path returns the SQLite file path, or "" for Postgres and wrapped connections.
func (s *Store) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is at the latest migration version.
func (s *Store) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.dialect)
}

// Migrate applies all pending migrations.
func (s *Store) Migrate() error {
	return migrations.MigrateUp(s.db, s.dialect)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}
