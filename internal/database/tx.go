package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sqldb "github.com/timeriffic/timeriffic/internal/database/sqlc"
)

type txKey struct{}

// Tx is the store's single open unit of work. Repository calls made with the
// context returned by Begin run inside it.
type Tx struct {
	id     string
	store  *Store
	sqlTx  *sql.Tx
	logger *zap.Logger

	mu   sync.Mutex
	done bool
}

// ID returns the correlation id used in log lines.
func (t *Tx) ID() string {
	return t.id
}

// Begin opens a transaction and returns a context carrying it. Only one
// transaction is open at a time: Begin waits for the current one to finish,
// or returns ErrTxBusy in fail-fast mode. Calling Begin with a context that
// already carries a transaction returns ErrMisuse.
func (s *Store) Begin(ctx context.Context) (context.Context, *Tx, error) {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok && tx.store == s {
		return nil, nil, fmt.Errorf("%w: nested transaction inside %s", ErrMisuse, tx.id)
	}
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	if s.failFast {
		select {
		case s.slot <- struct{}{}:
		default:
			return nil, nil, ErrTxBusy
		}
	} else {
		select {
		case s.slot <- struct{}{}:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.slot
		return nil, nil, fmt.Errorf("%w: store is closed", ErrMisuse)
	}
	s.open++
	s.mu.Unlock()

	// Cancelling ctx must not roll the transaction back behind the caller.
	sqlTx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		s.release()
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{
		id:     uuid.NewString(),
		store:  s,
		sqlTx:  sqlTx,
		logger: s.logger,
	}
	tx.logger.Debug("begin transaction", zap.String("tx", tx.id))

	return context.WithValue(ctx, txKey{}, tx), tx, nil
}

// Commit makes the transaction's writes visible. Committing a finished
// transaction returns ErrMisuse.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return fmt.Errorf("%w: transaction %s already finished", ErrMisuse, t.id)
	}
	t.done = true
	defer t.store.release()

	if err := t.sqlTx.Commit(); err != nil {
		t.logger.Debug("commit failed", zap.String("tx", t.id), zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.logger.Debug("commit transaction", zap.String("tx", t.id))
	return nil
}

// Rollback discards the transaction's writes. It is a no-op once the
// transaction has finished, so it can always be deferred.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	defer t.store.release()

	if err := t.sqlTx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	t.logger.Debug("rollback transaction", zap.String("tx", t.id))
	return nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged
// apart from a joined rollback failure. A panic in fn rolls back before it
// propagates.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback error: %w)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (s *Store) release() {
	s.mu.Lock()
	s.open--
	s.mu.Unlock()
	<-s.slot
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: store is closed", ErrMisuse)
	}
	return nil
}

// activeTx returns the transaction carried by ctx, or nil when ctx carries
// none for this store.
func (s *Store) activeTx(ctx context.Context) (*Tx, error) {
	tx, ok := ctx.Value(txKey{}).(*Tx)
	if !ok || tx.store != s {
		return nil, s.checkOpen()
	}
	tx.mu.Lock()
	done := tx.done
	tx.mu.Unlock()
	if done {
		return nil, fmt.Errorf("%w: transaction %s already finished", ErrMisuse, tx.id)
	}
	return tx, nil
}

// handle returns the executor for ctx: the open transaction carried by ctx,
// or the pooled connection otherwise.
func (s *Store) handle(ctx context.Context) (sqldb.DBTX, error) {
	tx, err := s.activeTx(ctx)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		return tx.sqlTx, nil
	}
	return s.db, nil
}

func (s *Store) queriesFor(ctx context.Context) (*sqldb.Queries, error) {
	tx, err := s.activeTx(ctx)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		return s.queries.WithTx(tx.sqlTx), nil
	}
	return s.queries, nil
}
