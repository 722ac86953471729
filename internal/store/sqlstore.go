package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nhle/kaizen/internal/ordering"
)

// queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx, so every
// store method runs unchanged inside or outside a transaction.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// SQLStore implements Store over database/sql using sqlx. The same queries
// serve SQLite, PostgreSQL and MySQL.
type SQLStore struct {
	db      *sqlx.DB
	q       queryer
	dialect dialect
}

// NewSQLStore opens a database with the given driver ("sqlite", "postgres"
// or "mysql") and runs any pending schema migrations.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	dsn, err := d.normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driver, err)
	}

	if d.driver == "sqlite" {
		// A single connection keeps ":memory:" databases shared and
		// serializes writers.
		db.SetMaxOpenConns(1)

		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	s := &SQLStore{db: db, q: db, dialect: d}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	return NewSQLStore("sqlite", dbPath)
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Driver returns the name of the database driver in use.
func (s *SQLStore) Driver() string {
	return s.dialect.driver
}

// runMigrations reads the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	currentVersion := 0
	if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for _, stmt := range m.stmts {
			if _, err := s.db.Exec(s.dialect.render(stmt)); err != nil {
				return fmt.Errorf("applying migration v%d: %w", m.version, err)
			}
		}
		if _, err := s.db.Exec(s.db.Rebind("INSERT INTO schema_version (version) VALUES (?)"), m.version); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// WithTx runs fn against a store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Nested
// calls reuse the outer transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx *SQLStore) error) error {
	if _, inTx := s.q.(*sqlx.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ordering.Transient("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return ordering.Transient("committing transaction", err)
	}
	return nil
}

// RunInTx is WithTx expressed over the Store interface.
func (s *SQLStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return s.WithTx(ctx, func(tx *SQLStore) error {
		return fn(tx)
	})
}

// Atomic implements ordering.Transactor.
func (s *SQLStore) Atomic(ctx context.Context, fn func(tx ordering.Store) error) error {
	return s.WithTx(ctx, func(tx *SQLStore) error {
		return fn(tx)
	})
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.q.Rebind(query), args...)
}

func (s *SQLStore) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.q.GetContext(ctx, dest, s.q.Rebind(query), args...)
}

func (s *SQLStore) selectRows(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.q.SelectContext(ctx, dest, s.q.Rebind(query), args...)
}

// lookup runs a single-row query and maps sql.ErrNoRows to a NotFoundError.
func (s *SQLStore) lookup(ctx context.Context, dest interface{}, kind ordering.Kind, id, query string, args ...interface{}) error {
	err := s.get(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ordering.NotFound(kind, id)
	}
	if err != nil {
		return ordering.Transient(fmt.Sprintf("getting %s %s", kind, id), err)
	}
	return nil
}

// mustAffect turns a zero-row write into a NotFoundError.
func mustAffect(result sql.Result, kind ordering.Kind, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ordering.NotFound(kind, id)
	}
	return nil
}

// boolToInt converts a Go bool to an integer for portable storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
