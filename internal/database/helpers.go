package database

import (
	"database/sql"

	sqldb "github.com/timeriffic/timeriffic/internal/database/sqlc"
)

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullInt64(value int64) sql.NullInt64 {
	return sql.NullInt64{Int64: value, Valid: true}
}

func optionalString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func optionalInt64(ni sql.NullInt64) int64 {
	if !ni.Valid {
		return 0
	}
	return ni.Int64
}

func boolToInt64(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

func mapRow(row sqldb.Profile) RowRecord {
	return RowRecord{
		ID:            row.ID,
		Kind:          RowKind(row.Kind),
		OrderKey:      row.OrderKey,
		Description:   optionalString(row.Description),
		Enabled:       row.Enabled != 0,
		TimeOfDay:     int(optionalInt64(row.TimeOfDay)),
		DaysOfWeek:    int(optionalInt64(row.DaysOfWeek)),
		ActionPayload: optionalString(row.ActionPayload),
		NextFireMs:    optionalInt64(row.NextFireMs),
	}
}

func insertParams(row NewRow) sqldb.InsertProfileRowParams {
	params := sqldb.InsertProfileRowParams{
		Kind:        int64(row.Kind),
		OrderKey:    row.OrderKey,
		Description: nullString(row.Description),
		Enabled:     boolToInt64(row.Enabled),
	}
	if row.Kind == KindTimedAction {
		params.TimeOfDay = nullInt64(int64(row.TimeOfDay))
		params.DaysOfWeek = nullInt64(int64(row.DaysOfWeek))
		params.ActionPayload = nullString(row.ActionPayload)
		params.NextFireMs = nullInt64(row.NextFireMs)
	}
	return params
}
