package sqldb

import "database/sql"

// RowColumns lists the profiles columns in the order Profile scans them.
const RowColumns = "id, kind, order_key, description, enabled, time_of_day, days_of_week, action_payload, next_fire_ms"

// Profile is one row of the profiles table. Both profile and timed action
// rows share it; the action-only columns are NULL on profile rows.
type Profile struct {
	ID            int64
	Kind          int64
	OrderKey      int64
	Description   sql.NullString
	Enabled       int64
	TimeOfDay     sql.NullInt64
	DaysOfWeek    sql.NullInt64
	ActionPayload sql.NullString
	NextFireMs    sql.NullInt64
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanProfile reads a row selected with RowColumns.
func ScanProfile(s Scanner) (Profile, error) {
	var p Profile
	err := s.Scan(
		&p.ID,
		&p.Kind,
		&p.OrderKey,
		&p.Description,
		&p.Enabled,
		&p.TimeOfDay,
		&p.DaysOfWeek,
		&p.ActionPayload,
		&p.NextFireMs,
	)
	return p, err
}
