// Package schedule holds the value types of a timed action's schedule: the
// time of day it fires at and the days of the week it applies to.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds TimeOfDay.
const MinutesPerDay = 24 * 60

var (
	ErrInvalidTime = errors.New("schedule: invalid time of day")
	ErrInvalidDays = errors.New("schedule: invalid days of week")
)

// TimeOfDay is a number of minutes since midnight, 0 to 1439.
type TimeOfDay int

// At returns the time of day for hour and minute.
func At(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTime accepts "HH:MM" in 24 hour notation.
func ParseTime(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q, want HH:MM", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return At(hour, minute)
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Weekdays is a bit mask of days, Monday in the lowest bit.
type Weekdays int

const (
	Monday Weekdays = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	NoDays   Weekdays = 0
	AllDays           = Monday | Tuesday | Wednesday | Thursday | Friday | Saturday | Sunday
	WorkDays          = Monday | Tuesday | Wednesday | Thursday | Friday
	Weekend           = Saturday | Sunday
)

var dayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Valid reports whether only the seven day bits are set.
func (d Weekdays) Valid() bool { return d >= 0 && d&^AllDays == 0 }

// Has reports whether every day in other is set in d.
func (d Weekdays) Has(other Weekdays) bool { return d&other == other }

// String renders the mask as comma separated day names, for example
// "Mon,Tue,Wed,Thu". An empty mask renders as "-".
func (d Weekdays) String() string {
	if d == NoDays {
		return "-"
	}
	var names []string
	for i, name := range dayNames {
		if d&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// ParseWeekdays accepts comma separated day names or ranges ("Mon-Thu",
// "Fri,Sat", "sun"), plus the words "all", "weekdays" (Monday to Friday),
// "weekend" and "none".
func ParseWeekdays(s string) (Weekdays, error) {
	var mask Weekdays
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
			continue
		case "all", "daily":
			mask |= AllDays
			continue
		case "weekdays":
			mask |= WorkDays
			continue
		case "weekend":
			mask |= Weekend
			continue
		case "none", "-":
			continue
		}

		from, to, isRange := strings.Cut(part, "-")
		start, ok := dayIndex(from)
		if !ok {
			return 0, fmt.Errorf("%w: unknown day %q", ErrInvalidDays, from)
		}
		end := start
		if isRange {
			if end, ok = dayIndex(to); !ok {
				return 0, fmt.Errorf("%w: unknown day %q", ErrInvalidDays, to)
			}
		}
		// Ranges may wrap around the week, e.g. Sat-Mon.
		for i := start; ; i = (i + 1) % len(dayNames) {
			mask |= 1 << i
			if i == end {
				break
			}
		}
	}
	return mask, nil
}

var fullDayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// dayIndex matches a case-folded prefix of at least two letters of a day name.
func dayIndex(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return 0, false
	}
	for i, full := range fullDayNames {
		if strings.HasPrefix(full, name) {
			return i, true
		}
	}
	return 0, false
}
