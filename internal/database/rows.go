package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	sqldb "github.com/timeriffic/timeriffic/internal/database/sqlc"
)

// RowRepository exposes the row level primitives of the profiles table. Every
// method runs in the transaction carried by ctx, if any.
type RowRepository struct {
	store *Store
}

// NewRowRepository returns a repository over store's profiles table.
func NewRowRepository(store *Store) *RowRepository {
	return &RowRepository{store: store}
}

// FindByID returns the row with the given id or ErrNotFound.
func (r *RowRepository) FindByID(ctx context.Context, id int64) (RowRecord, error) {
	q, err := r.store.queriesFor(ctx)
	if err != nil {
		return RowRecord{}, err
	}

	row, err := q.GetProfileRow(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RowRecord{}, fmt.Errorf("%w: row %d", ErrNotFound, id)
		}
		return RowRecord{}, err
	}
	return mapRow(row), nil
}

// Query streams the rows matching f. The cursor is closed when the sequence
// ends or the caller stops iterating. No other store call may be made with
// the same context until iteration finishes.
func (r *RowRepository) Query(ctx context.Context, f Filter) iter.Seq2[RowRecord, error] {
	return func(yield func(RowRecord, error) bool) {
		db, err := r.store.handle(ctx)
		if err != nil {
			yield(RowRecord{}, err)
			return
		}

		where, args := f.where()
		query := "SELECT " + sqldb.RowColumns + " FROM profiles" + where + f.orderBy()
		if f.limit > 0 {
			query += " LIMIT ?"
			args = append(args, f.limit)
		}

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(RowRecord{}, fmt.Errorf("failed to query rows: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			row, err := sqldb.ScanProfile(rows)
			if err != nil {
				yield(RowRecord{}, fmt.Errorf("failed to scan row: %w", err))
				return
			}
			if !yield(mapRow(row), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(RowRecord{}, fmt.Errorf("failed to iterate rows: %w", err))
		}
	}
}

// List collects Query into a slice.
func (r *RowRepository) List(ctx context.Context, f Filter) ([]RowRecord, error) {
	var result []RowRecord
	for row, err := range r.Query(ctx, f) {
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, nil
}

// Insert writes a new row and returns its id. Any storage failure is
// reported as ErrInsertFailed.
func (r *RowRepository) Insert(ctx context.Context, row NewRow) (int64, error) {
	if !row.Kind.Valid() {
		return 0, fmt.Errorf("%w: invalid row kind %d", ErrInsertFailed, int64(row.Kind))
	}

	q, err := r.store.queriesFor(ctx)
	if err != nil {
		return 0, err
	}

	id, err := q.InsertProfileRow(ctx, insertParams(row))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return id, nil
}

// Update applies v to every row matching f and returns the number of rows
// changed. The order key is not updatable.
func (r *RowRepository) Update(ctx context.Context, f Filter, v RowValues) (int64, error) {
	if v.IsEmpty() {
		return 0, nil
	}

	db, err := r.store.handle(ctx)
	if err != nil {
		return 0, err
	}

	var (
		sets []string
		args []any
	)
	if v.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*v.Description))
	}
	if v.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, boolToInt64(*v.Enabled))
	}
	if v.TimeOfDay != nil {
		sets = append(sets, "time_of_day = ?")
		args = append(args, int64(*v.TimeOfDay))
	}
	if v.DaysOfWeek != nil {
		sets = append(sets, "days_of_week = ?")
		args = append(args, int64(*v.DaysOfWeek))
	}
	if v.ActionPayload != nil {
		sets = append(sets, "action_payload = ?")
		args = append(args, nullString(*v.ActionPayload))
	}
	if v.NextFireMs != nil {
		sets = append(sets, "next_fire_ms = ?")
		args = append(args, *v.NextFireMs)
	}

	where, whereArgs := f.where()
	args = append(args, whereArgs...)

	res, err := db.ExecContext(ctx, "UPDATE profiles SET "+strings.Join(sets, ", ")+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update rows: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes every row matching f and returns how many were removed.
func (r *RowRepository) Delete(ctx context.Context, f Filter) (int64, error) {
	db, err := r.store.handle(ctx)
	if err != nil {
		return 0, err
	}

	where, args := f.where()
	res, err := db.ExecContext(ctx, "DELETE FROM profiles"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}
	return res.RowsAffected()
}

// MaxOrderKey returns the largest order key matching f. found is false when
// no row matches.
func (r *RowRepository) MaxOrderKey(ctx context.Context, f Filter) (key int64, found bool, err error) {
	db, err := r.store.handle(ctx)
	if err != nil {
		return 0, false, err
	}

	where, args := f.where()
	var maxKey sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(order_key) FROM profiles"+where, args...).Scan(&maxKey); err != nil {
		return 0, false, fmt.Errorf("failed to read max order key: %w", err)
	}
	return maxKey.Int64, maxKey.Valid, nil
}

// Count returns the number of rows matching f.
func (r *RowRepository) Count(ctx context.Context, f Filter) (int64, error) {
	db, err := r.store.handle(ctx)
	if err != nil {
		return 0, err
	}

	where, args := f.where()
	var n int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}
