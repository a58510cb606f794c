package database

import "fmt"

// RowKind tags every row of the profiles table.
type RowKind int64

const (
	KindProfile     RowKind = 1
	KindTimedAction RowKind = 2
)

func (k RowKind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindTimedAction:
		return "timed_action"
	default:
		return fmt.Sprintf("kind(%d)", int64(k))
	}
}

// Valid reports whether k is one of the stored kinds.
func (k RowKind) Valid() bool {
	return k == KindProfile || k == KindTimedAction
}

// RowRecord is a row of the profiles table. TimeOfDay, DaysOfWeek,
// ActionPayload and NextFireMs are only meaningful on timed actions and read
// back as zero values on profile rows.
type RowRecord struct {
	ID            int64
	Kind          RowKind
	OrderKey      int64
	Description   string
	Enabled       bool
	TimeOfDay     int
	DaysOfWeek    int
	ActionPayload string
	NextFireMs    int64
}

// NewRow holds the values of a row to insert. The order key is computed by
// the caller and is never changed afterwards.
type NewRow struct {
	Kind          RowKind
	OrderKey      int64
	Description   string
	Enabled       bool
	TimeOfDay     int
	DaysOfWeek    int
	ActionPayload string
	NextFireMs    int64
}

// RowValues is a partial update. Nil fields are left untouched.
type RowValues struct {
	Description   *string
	Enabled       *bool
	TimeOfDay     *int
	DaysOfWeek    *int
	ActionPayload *string
	NextFireMs    *int64
}

// IsEmpty reports whether v would not change anything.
func (v RowValues) IsEmpty() bool {
	return v.Description == nil &&
		v.Enabled == nil &&
		v.TimeOfDay == nil &&
		v.DaysOfWeek == nil &&
		v.ActionPayload == nil &&
		v.NextFireMs == nil
}

// SchemaEvent describes what Open did to the schema.
type SchemaEvent int

const (
	// SchemaOpened means an existing table at the configured version was reused.
	SchemaOpened SchemaEvent = iota
	// SchemaCreated means the table did not exist and was created.
	SchemaCreated
	// SchemaUpgraded means the stored version differed and the table was
	// dropped and recreated. Previous rows are gone.
	SchemaUpgraded
)

func (e SchemaEvent) String() string {
	switch e {
	case SchemaCreated:
		return "created"
	case SchemaUpgraded:
		return "upgraded"
	default:
		return "opened"
	}
}

// Schema reports the outcome of the schema check performed by Open.
type Schema struct {
	Event           SchemaEvent
	Version         int
	PreviousVersion int
}

// Fresh reports whether the table is new and empty, either because it was
// just created or because an upgrade dropped it.
func (s Schema) Fresh() bool {
	return s.Event == SchemaCreated || s.Event == SchemaUpgraded
}
