// Package database owns the profiles table: schema lifecycle, the single
// writer transaction model and the row level primitives the profile façade
// is built from.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/timeriffic/timeriffic/db/migrations"
	sqldb "github.com/timeriffic/timeriffic/internal/database/sqlc"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options configures Open.
type Options struct {
	// Path of the database file, or MemoryPath.
	Path string
	// SchemaVersion is compared with the version stamped in the file. A
	// mismatch drops and recreates the table.
	SchemaVersion int
	// FailFast makes Begin return ErrTxBusy instead of waiting for the open
	// transaction to finish.
	FailFast bool
	Logger   *zap.Logger
}

// Store is an open profiles database.
type Store struct {
	db       *sql.DB
	queries  *sqldb.Queries
	logger   *zap.Logger
	failFast bool
	schema   Schema

	// slot holds a token while a transaction is open.
	slot chan struct{}

	mu     sync.Mutex
	closed bool
	open   int
}

// Open opens or creates the database at opts.Path and brings the schema to
// opts.SchemaVersion.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.SchemaVersion <= 0 {
		return nil, fmt.Errorf("%w: schema version must be positive, got %d", ErrSchema, opts.SchemaVersion)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn, err := dataSourceName(opts.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer. One pooled connection also makes reads
	// outside a transaction wait for the open transaction to commit.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:       db,
		queries:  sqldb.New(db),
		logger:   logger,
		failFast: opts.FailFast,
		slot:     make(chan struct{}, 1),
	}

	schema, err := s.prepareSchema(ctx, opts.SchemaVersion)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.schema = schema

	return s, nil
}

func dataSourceName(path string) (string, error) {
	const common = "_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate"

	if path == "" || path == MemoryPath {
		return "file::memory:?" + common, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return fmt.Sprintf("file:%s?%s&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", filepath.ToSlash(absPath), common), nil
}

// Schema reports what Open did to the schema.
func (s *Store) Schema() Schema {
	return s.schema
}

// Close releases the database. Closing while a transaction is open is a
// misuse and leaves the store open. Closing twice is a no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.open > 0 {
		return fmt.Errorf("%w: close with %d open transaction(s)", ErrMisuse, s.open)
	}
	s.closed = true
	return s.db.Close()
}

// Clear removes every row and restarts row id assignment. It joins the
// transaction carried by ctx, if any, and otherwise runs in its own.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var deleted int64
	clearRows := func(ctx context.Context) error {
		q, err := s.queriesFor(ctx)
		if err != nil {
			return err
		}
		if deleted, err = q.DeleteAllProfileRows(ctx); err != nil {
			return fmt.Errorf("failed to delete rows: %w", err)
		}
		if err := q.ResetProfileSequence(ctx); err != nil {
			return fmt.Errorf("failed to reset row ids: %w", err)
		}
		return nil
	}

	tx, err := s.activeTx(ctx)
	if err != nil {
		return 0, err
	}
	if tx != nil {
		err = clearRows(ctx)
	} else {
		err = s.WithTx(ctx, clearRows)
	}
	return deleted, err
}

func (s *Store) prepareSchema(ctx context.Context, version int) (Schema, error) {
	stored, err := s.queries.UserVersion(ctx)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: read user_version: %w", ErrSchema, err)
	}
	exists, err := s.queries.ProfilesTableExists(ctx)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: inspect tables: %w", ErrSchema, err)
	}

	schema := Schema{Event: SchemaOpened, Version: version, PreviousVersion: stored}

	switch {
	case !exists:
		schema.Event = SchemaCreated
	case stored == 0:
		// Created but never stamped: only adopt it when nothing was written.
		n, err := s.queries.CountProfileRows(ctx)
		if err != nil {
			return Schema{}, fmt.Errorf("%w: count rows: %w", ErrSchema, err)
		}
		if n == 0 {
			schema.Event = SchemaCreated
		} else {
			schema.Event = SchemaUpgraded
		}
	case stored != version:
		schema.Event = SchemaUpgraded
	}

	if err := s.runMigrations(ctx, schema.Event == SchemaUpgraded); err != nil {
		return Schema{}, err
	}

	if err := s.queries.SetUserVersion(ctx, version); err != nil {
		return Schema{}, fmt.Errorf("%w: stamp user_version: %w", ErrSchema, err)
	}

	switch schema.Event {
	case SchemaCreated:
		s.logger.Info("created profiles table", zap.Int("version", version))
	case SchemaUpgraded:
		s.logger.Warn("upgraded profiles table, existing rows were dropped",
			zap.Int("from", stored),
			zap.Int("to", version))
	}

	return schema, nil
}

// runMigrations applies the embedded migrations. A destructive upgrade rolls
// every migration down first. The migrator is never closed because that
// would close s.db.
func (s *Store) runMigrations(ctx context.Context, recreate bool) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%w: initialise migrate driver: %w", ErrSchema, err)
	}

	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("%w: load embedded migrations: %w", ErrSchema, err)
	}
	defer func() {
		_ = sourceDriver.Close()
	}()

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("%w: create migrator: %w", ErrSchema, err)
	}

	if recreate {
		err := migrator.Down()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			// Table predates migration tracking.
			if err := s.queries.DropProfilesTable(ctx); err != nil {
				return fmt.Errorf("%w: drop profiles table: %w", ErrSchema, err)
			}
		case err != nil:
			return fmt.Errorf("%w: drop profiles table: %w", ErrSchema, err)
		}
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: apply migrations: %w", ErrSchema, err)
	}

	return nil
}
