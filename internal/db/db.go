// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	gosqlite "github.com/mattn/go-sqlite3"

	"github.com/codr1/quickcourt/internal/config"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS exposes the embedded migrations to operator tooling.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

type DB struct {
	*sql.DB
	Queries *dbgen.Queries
}

// Options tune the SQLite connection string.
type Options struct {
	BusyTimeoutMS int
}

// New opens a SQLite database for the given data source name, applies the
// connection defaults (foreign keys, busy timeout, immediate write
// transactions, WAL), runs the embedded migrations and returns a DB with
// generated queries bound to the connection.
func New(dataSourceName string) (*DB, error) {
	return open(dataSourceName, Options{})
}

// NewFromConfig creates a new DB instance from cfg by opening the configured
// database, applying migrations, and returning a DB with generated queries
// bound to the opened connection. Only the "sqlite" driver is supported; the
// database directory is created when missing.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
		return open(cfg.Database.Filename, Options{BusyTimeoutMS: cfg.Database.BusyTimeout})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func open(dataSourceName string, opts Options) (*DB, error) {
	dataSourceName = ConnectionString(dataSourceName, opts)
	sqlDB, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: dbgen.New(sqlDB),
	}, nil
}

// ConnectionString adds the go-sqlite3 DSN parameters the booking
// engine relies on, leaving any parameter the caller already set untouched.
// _txlock=immediate makes every write transaction take the RESERVED lock at
// BEGIN, so two overlapping booking transactions serialize and the second
// re-checks against committed state.
func ConnectionString(dataSourceName string, opts Options) string {
	busy := opts.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	defaults := []struct{ key, value string }{
		{"_fk", "1"},
		{"_busy_timeout", strconv.Itoa(busy)},
		{"_txlock", "immediate"},
		{"_journal_mode", "WAL"},
	}

	var params url.Values
	base := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx >= 0 {
		base = dataSourceName[:idx]
		parsed, err := url.ParseQuery(dataSourceName[idx+1:])
		if err != nil {
			return dataSourceName
		}
		params = parsed
	} else {
		params = url.Values{}
	}

	for _, d := range defaults {
		if params.Get(d.key) == "" {
			params.Set(d.key, d.value)
		}
	}
	return base + "?" + params.Encode()
}

// runMigrations applies the embedded SQL migrations from migrationsFS to the provided database.
// A "no change" result is not treated as an error.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", source,
		"sqlite3", driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// WithTx creates a new DB instance with the given transaction
func (db *DB) WithTx(tx *sql.Tx) *DB {
	return &DB{
		DB:      db.DB,
		Queries: db.Queries.WithTx(tx),
	}
}

// BeginTx starts a transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

// RunInTx runs the given function in a transaction
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txDB := db.WithTx(tx)
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr gosqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == gosqlite.ErrConstraint &&
		(sqliteErr.ExtendedCode == gosqlite.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == gosqlite.ErrConstraintPrimaryKey)
}

// IsBusy reports whether err is a transient SQLITE_BUSY or SQLITE_LOCKED.
func IsBusy(err error) bool {
	var sqliteErr gosqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == gosqlite.ErrBusy || sqliteErr.Code == gosqlite.ErrLocked
}

// RetryRead runs a read-only fn and retries it once when the store reports a
// transient lock error. Writes must not use it.
func RetryRead[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !IsBusy(err) {
		return v, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return v, err
	}
	return fn(ctx)
}
