// Package sqlite provides an embedded SQLite implementation of
// database.Store, used for local development and as the runnable test store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Strob0t/crmlite/internal/config"
	"github.com/Strob0t/crmlite/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements database.Store on a single SQLite connection.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to the database file named in cfg (":memory:" for an
// in-process database) with foreign keys enforced.
func Open(ctx context.Context, cfg config.SQLite) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if path == "" || path == ":memory:" {
		return "file::memory:?" + params
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&" + params
}

// NewStore creates a Store over an open connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema applies pending migrations; a no-op on a current schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	p, err := goose.NewProvider(database.DialectSQLite3, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func execExpectOne(res sql.Result, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return nil
}

// writeErr maps constraint violations on a write. A foreign key violation
// becomes ref; a unique violation becomes domain.ErrConflict.
func writeErr(err error, ref *domain.ReferenceError, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var sqlErr *sqlitedriver.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "FOREIGN KEY")):
			if ref != nil {
				return fmt.Errorf("%s: %w", msg, ref)
			}
			return fmt.Errorf("%s: %w", msg, domain.ErrReferentialIntegrity)
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "UNIQUE")):
			return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
