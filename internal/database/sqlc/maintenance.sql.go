package sqldb

import (
	"context"
	"fmt"
)

const deleteAllProfileRows = `DELETE FROM profiles`

func (q *Queries) DeleteAllProfileRows(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAllProfileRows)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const resetProfileSequence = `DELETE FROM sqlite_sequence WHERE name = 'profiles'`

func (q *Queries) ResetProfileSequence(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, resetProfileSequence)
	return err
}

const userVersion = `PRAGMA user_version`

func (q *Queries) UserVersion(ctx context.Context) (int, error) {
	var v int
	err := q.db.QueryRowContext(ctx, userVersion).Scan(&v)
	return v, err
}

// PRAGMA does not accept bound parameters.
func (q *Queries) SetUserVersion(ctx context.Context, version int) error {
	_, err := q.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

const dropProfilesTable = `DROP TABLE IF EXISTS profiles`

func (q *Queries) DropProfilesTable(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, dropProfilesTable)
	return err
}
