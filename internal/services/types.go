package services

import (
	"github.com/timeriffic/timeriffic/internal/database"
	"github.com/timeriffic/timeriffic/internal/keyspace"
	"github.com/timeriffic/timeriffic/internal/schedule"
)

// Profile is a named group of timed actions.
type Profile struct {
	RowID   int64  `json:"row_id"`
	Index   int64  `json:"index"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

// TimedAction is an entry of a profile's action list.
type TimedAction struct {
	RowID        int64              `json:"row_id"`
	ProfileIndex int64              `json:"profile_index"`
	Offset       int64              `json:"offset"`
	Description  string             `json:"description"`
	Active       bool               `json:"active"`
	TimeOfDay    schedule.TimeOfDay `json:"time_of_day"`
	Days         schedule.Weekdays  `json:"days"`
	Payload      string             `json:"payload"`
	NextFireMs   int64              `json:"next_fire_ms"`
}

// ActionInput holds the fields of a new timed action.
type ActionInput struct {
	Description string             `validate:"max=1024"`
	Active      bool
	TimeOfDay   schedule.TimeOfDay `validate:"timeofday"`
	Days        schedule.Weekdays  `validate:"weekdays"`
	Payload     string             `validate:"max=4096"`
	NextFireMs  int64              `validate:"min=0"`
}

// ProfileUpdate changes a profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Title   *string `validate:"omitempty,max=1024"`
	Enabled *bool
}

// ActionUpdate changes a timed action. Nil fields are left untouched; the
// action's position never changes.
type ActionUpdate struct {
	Description *string             `validate:"omitempty,max=1024"`
	Active      *bool
	TimeOfDay   *schedule.TimeOfDay `validate:"omitempty,timeofday"`
	Days        *schedule.Weekdays  `validate:"omitempty,weekdays"`
	Payload     *string             `validate:"omitempty,max=4096"`
	NextFireMs  *int64              `validate:"omitempty,min=0"`
}

// ListOptions narrows and orders list results. The zero value lists every
// row in display order.
type ListOptions struct {
	EnabledOnly bool
	Descending  bool
}

func (o ListOptions) apply(f database.Filter) database.Filter {
	if o.EnabledOnly {
		f = f.Enabled(true)
	}
	if o.Descending {
		f = f.Descending()
	}
	return f
}

func profileFromRow(layout keyspace.Layout, row database.RowRecord) Profile {
	return Profile{
		RowID:   row.ID,
		Index:   layout.ProfileIndex(row.OrderKey),
		Title:   row.Description,
		Enabled: row.Enabled,
	}
}

func actionFromRow(layout keyspace.Layout, row database.RowRecord) TimedAction {
	p, off := layout.Decode(row.OrderKey)
	return TimedAction{
		RowID:        row.ID,
		ProfileIndex: p,
		Offset:       off,
		Description:  row.Description,
		Active:       row.Enabled,
		TimeOfDay:    schedule.TimeOfDay(row.TimeOfDay),
		Days:         schedule.Weekdays(row.DaysOfWeek),
		Payload:      row.ActionPayload,
		NextFireMs:   row.NextFireMs,
	}
}

func (u ProfileUpdate) values() database.RowValues {
	return database.RowValues{Description: u.Title, Enabled: u.Enabled}
}

func (u ActionUpdate) values() database.RowValues {
	v := database.RowValues{
		Description:   u.Description,
		Enabled:       u.Active,
		ActionPayload: u.Payload,
		NextFireMs:    u.NextFireMs,
	}
	if u.TimeOfDay != nil {
		minutes := int(*u.TimeOfDay)
		v.TimeOfDay = &minutes
	}
	if u.Days != nil {
		days := int(*u.Days)
		v.DaysOfWeek = &days
	}
	return v
}
