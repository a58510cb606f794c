package sqldb

import (
	"context"
	"database/sql"
)

const insertProfileRow = `
INSERT INTO profiles (kind, order_key, description, enabled, time_of_day, days_of_week, action_payload, next_fire_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

type InsertProfileRowParams struct {
	Kind          int64
	OrderKey      int64
	Description   sql.NullString
	Enabled       int64
	TimeOfDay     sql.NullInt64
	DaysOfWeek    sql.NullInt64
	ActionPayload sql.NullString
	NextFireMs    sql.NullInt64
}

func (q *Queries) InsertProfileRow(ctx context.Context, arg InsertProfileRowParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertProfileRow,
		arg.Kind,
		arg.OrderKey,
		arg.Description,
		arg.Enabled,
		arg.TimeOfDay,
		arg.DaysOfWeek,
		arg.ActionPayload,
		arg.NextFireMs,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getProfileRow = `SELECT ` + RowColumns + ` FROM profiles WHERE id = ?`

func (q *Queries) GetProfileRow(ctx context.Context, id int64) (Profile, error) {
	return ScanProfile(q.db.QueryRowContext(ctx, getProfileRow, id))
}

const profilesTableExists = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'profiles'`

func (q *Queries) ProfilesTableExists(ctx context.Context) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, profilesTableExists).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const countProfileRows = `SELECT COUNT(*) FROM profiles`

func (q *Queries) CountProfileRows(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countProfileRows).Scan(&n)
	return n, err
}
