package database

import "errors"

var (
	// ErrNotFound indicates a requested row does not exist.
	ErrNotFound = errors.New("database: not found")
	// ErrInsertFailed wraps any storage error raised while writing a new row.
	ErrInsertFailed = errors.New("database: insert failed")
	// ErrSchema wraps failures to create, migrate or stamp the schema.
	ErrSchema = errors.New("database: schema error")
	// ErrMisuse reports programming errors: using a closed store, nesting
	// transactions, using a finished transaction or closing the store while a
	// transaction is open.
	ErrMisuse = errors.New("database: misuse")
	// ErrTxBusy is returned by Begin in fail-fast mode while another
	// transaction is open.
	ErrTxBusy = errors.New("database: transaction busy")
)
