// Package services is the profile and timed action façade. Every operation
// that writes more than one statement runs in a single store transaction and
// rolls back on any failure.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/timeriffic/timeriffic/internal/database"
	"github.com/timeriffic/timeriffic/internal/keyspace"
)

// Options configures Open.
type Options struct {
	Path          string
	SchemaVersion int
	Layout        keyspace.Layout
	FailFast      bool
	// Seed writes the example profiles whenever the table is created or
	// recreated.
	Seed bool
}

// Services owns the store and the façade built on it.
type Services struct {
	Profiles *ProfileService
	Actions  *ActionService

	store  *database.Store
	logger *zap.Logger
	seed   bool
}

// Open opens the store described by opts and seeds it when it is fresh.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}

	store, err := database.Open(ctx, database.Options{
		Path:          opts.Path,
		SchemaVersion: opts.SchemaVersion,
		FailFast:      opts.FailFast,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	s := New(store, opts.Layout, logger)
	s.seed = opts.Seed

	if opts.Seed && store.Schema().Fresh() {
		if err := s.Seed(ctx); err != nil {
			if closeErr := store.Close(); closeErr != nil {
				return nil, fmt.Errorf("%w (close error: %w)", err, closeErr)
			}
			return nil, err
		}
	}

	return s, nil
}

// New builds the façade over an already open store.
func New(store *database.Store, layout keyspace.Layout, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Services{
		Profiles: NewProfileService(store, layout, logger),
		Actions:  NewActionService(store, layout, logger),
		store:    store,
		logger:   logger,
	}
}

// Store returns the underlying store.
func (s *Services) Store() *database.Store {
	return s.store
}

// Close closes the store.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	return s.store.Close()
}

// Reset deletes every profile and action, then seeds the example data again
// if the services were opened with seeding enabled. Both steps share one
// transaction, so a failed reseed leaves the table untouched.
func (s *Services) Reset(ctx context.Context) error {
	var deleted int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		if deleted, err = s.store.Clear(txCtx); err != nil {
			return err
		}
		if !s.seed {
			return nil
		}
		return s.seedRows(txCtx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("cleared profiles table", zap.Int64("rows", deleted))
	if s.seed {
		s.logger.Info("seeded example profiles", zap.Int("profiles", len(seedProfiles)))
	}
	return nil
}
