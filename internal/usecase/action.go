package usecase

import (
	"fmt"
	"strings"

	"github.com/timeriffic/timeriffic/internal/schedule"
	"github.com/timeriffic/timeriffic/internal/services"
)

// ActionOptions carries a timed action as typed by a user: the time as
// "HH:MM" and the days as names, for example "Mon-Thu".
type ActionOptions struct {
	Description string
	Active      bool
	Time        string
	Days        string
	Payload     string
	NextFireMs  int64
}

// ResolveAction converts CLI/MCP-level action options into an ActionInput.
func ResolveAction(opts ActionOptions) (services.ActionInput, error) {
	at, err := schedule.ParseTime(opts.Time)
	if err != nil {
		return services.ActionInput{}, fmt.Errorf("--time: %w", err)
	}
	days, err := schedule.ParseWeekdays(opts.Days)
	if err != nil {
		return services.ActionInput{}, fmt.Errorf("--days: %w", err)
	}
	return services.ActionInput{
		Description: opts.Description,
		Active:      opts.Active,
		TimeOfDay:   at,
		Days:        days,
		Payload:     opts.Payload,
		NextFireMs:  opts.NextFireMs,
	}, nil
}

// ActionChanges lists the fields a user asked to change. Nil means keep.
type ActionChanges struct {
	Description *string
	Active      *bool
	Time        *string
	Days        *string
	Payload     *string
	NextFireMs  *int64
}

// ResolveActionUpdate converts user supplied changes into an ActionUpdate.
func ResolveActionUpdate(c ActionChanges) (services.ActionUpdate, error) {
	upd := services.ActionUpdate{
		Description: c.Description,
		Active:      c.Active,
		Payload:     c.Payload,
		NextFireMs:  c.NextFireMs,
	}
	if c.Time != nil {
		at, err := schedule.ParseTime(*c.Time)
		if err != nil {
			return services.ActionUpdate{}, fmt.Errorf("--time: %w", err)
		}
		upd.TimeOfDay = &at
	}
	if c.Days != nil {
		days, err := schedule.ParseWeekdays(*c.Days)
		if err != nil {
			return services.ActionUpdate{}, fmt.Errorf("--days: %w", err)
		}
		upd.Days = &days
	}
	return upd, nil
}

// FormatAction renders an action's schedule the way list output shows it.
func FormatAction(a services.TimedAction) string {
	var b strings.Builder
	b.WriteString(a.TimeOfDay.String())
	b.WriteString(" ")
	b.WriteString(a.Days.String())
	if a.Payload != "" {
		b.WriteString(" [")
		b.WriteString(a.Payload)
		b.WriteString("]")
	}
	return b.String()
}
