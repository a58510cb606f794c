package services

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeriffic/timeriffic/internal/database"
	"github.com/timeriffic/timeriffic/internal/keyspace"
	"github.com/timeriffic/timeriffic/internal/schedule"
)

const gap = keyspace.DefaultGap

type testEnv struct {
	svc  *Services
	path string
}

func setupServices(t *testing.T, opts ...func(*Options)) testEnv {
	t.Helper()

	o := Options{
		Path:          filepath.Join(t.TempDir(), "profiles.db"),
		SchemaVersion: 101,
		Layout:        keyspace.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	svc, err := Open(context.Background(), o, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.Close()
	})
	return testEnv{svc: svc, path: o.Path}
}

// execRaw runs SQL on a second connection to the same database file.
func (e testEnv) execRaw(t *testing.T, stmt string) {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(e.path)+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(stmt)
	require.NoError(t, err)
}

func (e testEnv) injectInsertFailure(t *testing.T, description string) {
	t.Helper()
	e.execRaw(t, `CREATE TRIGGER fail_insert BEFORE INSERT ON profiles
		WHEN NEW.description = '`+description+`'
		BEGIN SELECT RAISE(ABORT, 'injected failure'); END`)
}

func titles(profiles []Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Title)
	}
	return out
}

func descriptions(actions []TimedAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Description)
	}
	return out
}

func rowCount(t *testing.T, svc *Services) int64 {
	t.Helper()
	n, err := database.NewRowRepository(svc.Store()).Count(context.Background(), database.AllRows())
	require.NoError(t, err)
	return n
}

func TestInsertProfileOrdering(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	a, err := svc.Profiles.InsertProfile(ctx, 0, "A", true)
	require.NoError(t, err)
	assert.Equal(t, gap, a)

	b, err := svc.Profiles.InsertProfile(ctx, 0, "B", true)
	require.NoError(t, err)
	assert.Equal(t, 2*gap, b)

	c, err := svc.Profiles.InsertProfile(ctx, b, "C", false)
	require.NoError(t, err)
	assert.Equal(t, (gap+2*gap)/2, c)

	profiles, err := svc.Profiles.ListProfiles(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, titles(profiles))
	assert.Equal(t, []int64{a, c, b}, []int64{profiles[0].Index, profiles[1].Index, profiles[2].Index})

	desc, err := svc.Profiles.ListProfiles(ctx, ListOptions{Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, titles(desc))

	enabled, err := svc.Profiles.ListProfiles(ctx, ListOptions{EnabledOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles(enabled))

	// Inserting before the first profile lands below it.
	head, err := svc.Profiles.InsertProfile(ctx, a, "Head", true)
	require.NoError(t, err)
	assert.Equal(t, gap/2, head)
}

func TestInsertTimedActionOrdering(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t)
	svc := env.svc

	_, err := database.NewRowRepository(svc.Store()).Insert(ctx, database.NewRow{
		Kind:     database.KindProfile,
		OrderKey: keyspace.Default().EncodeProfile(5),
	})
	require.NoError(t, err)

	first, err := svc.Actions.InsertTimedAction(ctx, 5, 0, ActionInput{Description: "first", TimeOfDay: 420, Days: schedule.Monday})
	require.NoError(t, err)
	assert.Equal(t, gap, first)

	second, err := svc.Actions.InsertTimedAction(ctx, 5, 0, ActionInput{Description: "second"})
	require.NoError(t, err)
	assert.Equal(t, 2*gap, second)

	third, err := svc.Actions.InsertTimedAction(ctx, 5, second, ActionInput{Description: "third"})
	require.NoError(t, err)
	assert.Equal(t, (gap+2*gap)/2, third)

	actions, err := svc.Actions.ListActions(ctx, 5, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third", "second"}, descriptions(actions))
	for _, a := range actions {
		assert.Equal(t, int64(5), a.ProfileIndex)
	}
	assert.Equal(t, schedule.TimeOfDay(420), actions[0].TimeOfDay)
	assert.Equal(t, schedule.Monday, actions[0].Days)
}

func TestInsertTimedActionUnknownProfile(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	_, err := svc.Actions.InsertTimedAction(ctx, 7, 0, ActionInput{Description: "orphan"})
	assert.ErrorIs(t, err, ErrUnknownRow)

	_, err = svc.Actions.InsertTimedAction(ctx, 0, 0, ActionInput{Description: "orphan"})
	assert.ErrorIs(t, err, keyspace.ErrInvalidIndex)

	assert.Zero(t, rowCount(t, svc))
}

func TestInsertTimedActionValidation(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)

	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{TimeOfDay: 1440})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Days: 128})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{NextFireMs: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, int64(1), rowCount(t, svc))
}

func TestActionsStayInsideTheirProfile(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p1, err := svc.Profiles.InsertProfile(ctx, 0, "P1", true)
	require.NoError(t, err)
	p2, err := svc.Profiles.InsertProfile(ctx, 0, "P2", true)
	require.NoError(t, err)

	// Actions of the later profile must not raise the earlier profile's max.
	_, err = svc.Actions.InsertTimedAction(ctx, p2, 0, ActionInput{Description: "p2-a"})
	require.NoError(t, err)
	off, err := svc.Actions.InsertTimedAction(ctx, p1, 0, ActionInput{Description: "p1-a"})
	require.NoError(t, err)
	assert.Equal(t, gap, off)

	_, err = svc.Actions.InsertTimedAction(ctx, p1, 0, ActionInput{Description: "p1-b"})
	require.NoError(t, err)

	a1, err := svc.Actions.ListActions(ctx, p1, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1-a", "p1-b"}, descriptions(a1))

	a2, err := svc.Actions.ListActions(ctx, p2, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2-a"}, descriptions(a2))
}

func TestDeleteProfileCascades(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	keep, err := svc.Profiles.InsertProfile(ctx, 0, "keep", true)
	require.NoError(t, err)
	drop, err := svc.Profiles.InsertProfile(ctx, 0, "drop", true)
	require.NoError(t, err)

	for _, p := range []int64{keep, drop} {
		for range 3 {
			_, err := svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "a"})
			require.NoError(t, err)
		}
	}

	dropProfile, err := svc.Profiles.GetProfile(ctx, drop)
	require.NoError(t, err)

	deleted, err := svc.Profiles.DeleteProfile(ctx, dropProfile.RowID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	profiles, err := svc.Profiles.ListProfiles(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, titles(profiles))

	kept, err := svc.Actions.ListActions(ctx, keep, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	gone, err := svc.Actions.ListActions(ctx, drop, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, gone)

	_, err = svc.Profiles.DeleteProfile(ctx, dropProfile.RowID)
	assert.ErrorIs(t, err, ErrUnknownRow)
	assert.Equal(t, int64(4), rowCount(t, svc))
}

func TestDeleteProfileRejectsActionRow(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)
	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "a"})
	require.NoError(t, err)

	actions, err := svc.Actions.ListActions(ctx, p, ListOptions{})
	require.NoError(t, err)
	require.Len(t, actions, 1)

	_, err = svc.Profiles.DeleteProfile(ctx, actions[0].RowID)
	assert.ErrorIs(t, err, ErrUnknownRow)
	assert.Equal(t, int64(2), rowCount(t, svc))
}

func TestDeleteActionTwice(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)
	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "a"})
	require.NoError(t, err)
	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "b"})
	require.NoError(t, err)

	actions, err := svc.Actions.ListActions(ctx, p, ListOptions{})
	require.NoError(t, err)

	n, err := svc.Actions.DeleteAction(ctx, actions[0].RowID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.Actions.DeleteAction(ctx, actions[0].RowID)
	require.NoError(t, err)
	assert.Zero(t, n)

	profile, err := svc.Profiles.GetProfile(ctx, p)
	require.NoError(t, err)

	// A profile row is never removed through DeleteAction.
	n, err = svc.Actions.DeleteAction(ctx, profile.RowID)
	require.NoError(t, err)
	assert.Zero(t, n)

	rest, err := svc.Actions.ListActions(ctx, p, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, descriptions(rest))
}

func TestInsertFailureLeavesNoRow(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t)
	svc := env.svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)
	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "a"})
	require.NoError(t, err)

	env.injectInsertFailure(t, "boom")

	_, err = svc.Profiles.InsertProfile(ctx, 0, "boom", true)
	assert.ErrorIs(t, err, database.ErrInsertFailed)

	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "boom"})
	assert.ErrorIs(t, err, database.ErrInsertFailed)

	assert.Equal(t, int64(2), rowCount(t, svc))

	// The max used for allocation is unchanged.
	next, err := svc.Profiles.InsertProfile(ctx, 0, "Q", true)
	require.NoError(t, err)
	assert.Equal(t, 2*gap, next)

	off, err := svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2*gap, off)
}

func TestActionIndexSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t, func(o *Options) {
		o.Layout = keyspace.Layout{Shift: 4, Gap: 4}
	}).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p)

	var offsets []int64
	for range 5 {
		off, err := svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "a"})
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	assert.Equal(t, []int64{4, 8, 12, 13, 14}, offsets)

	_, err = svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "overflow"})
	assert.ErrorIs(t, err, keyspace.ErrIndexSpaceExhausted)
	assert.Equal(t, int64(6), rowCount(t, svc))

	// The next profile is unaffected.
	q, err := svc.Profiles.InsertProfile(ctx, 0, "Q", true)
	require.NoError(t, err)
	off, err := svc.Actions.InsertTimedAction(ctx, q, 0, ActionInput{Description: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), off)
}

func TestRepeatedInsertBeforeRunsOutOfGap(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	_, err := svc.Profiles.InsertProfile(ctx, 0, "A", true)
	require.NoError(t, err)
	b, err := svc.Profiles.InsertProfile(ctx, 0, "B", true)
	require.NoError(t, err)

	inserted := 0
	for {
		_, err := svc.Profiles.InsertProfile(ctx, b, "x", true)
		if err != nil {
			require.ErrorIs(t, err, keyspace.ErrNoGapAvailable)
			break
		}
		inserted++
		require.LessOrEqual(t, inserted, 64)
	}
	assert.Equal(t, 16, inserted)
	assert.Equal(t, int64(18), rowCount(t, svc))
}

func TestInsertBeforeOutsideScope(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)

	_, err = svc.Actions.InsertTimedAction(ctx, p, keyspace.Default().ActionMask(), ActionInput{})
	assert.ErrorIs(t, err, keyspace.ErrInvalidIndex)

	_, err = svc.Profiles.InsertProfile(ctx, keyspace.Default().ProfileLimit(), "x", true)
	assert.ErrorIs(t, err, keyspace.ErrInvalidIndex)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "Weekdaze", true)
	require.NoError(t, err)
	profile, err := svc.Profiles.GetProfile(ctx, p)
	require.NoError(t, err)

	title := "Workdays"
	require.NoError(t, svc.Profiles.UpdateProfile(ctx, profile.RowID, ProfileUpdate{Title: &title}))

	off := false
	require.NoError(t, svc.Profiles.UpdateProfileByIndex(ctx, p, ProfileUpdate{Enabled: &off}))

	profile, err = svc.Profiles.GetProfile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Workdays", profile.Title)
	assert.False(t, profile.Enabled)
	assert.Equal(t, p, profile.Index)

	require.NoError(t, svc.Profiles.UpdateProfile(ctx, profile.RowID, ProfileUpdate{}))

	assert.ErrorIs(t, svc.Profiles.UpdateProfile(ctx, profile.RowID+100, ProfileUpdate{Title: &title}), ErrUnknownRow)
	assert.ErrorIs(t, svc.Profiles.UpdateProfile(ctx, profile.RowID+100, ProfileUpdate{}), ErrUnknownRow)
	assert.ErrorIs(t, svc.Profiles.UpdateProfileByIndex(ctx, p+1, ProfileUpdate{Title: &title}), ErrUnknownRow)

	_, err = svc.Profiles.GetProfile(ctx, p+1)
	assert.ErrorIs(t, err, ErrUnknownRow)
}

func TestProfileIndexOutsideKeySpace(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	a, err := svc.Profiles.InsertProfile(ctx, 0, "A", true)
	require.NoError(t, err)

	// 1<<32 + a shifts onto the same key as a under the default layout.
	wrapped := int64(1)<<32 + a
	title := "renamed"
	for _, index := range []int64{wrapped, -a, 0, math.MaxInt64} {
		assert.ErrorIs(t, svc.Profiles.UpdateProfileByIndex(ctx, index, ProfileUpdate{Title: &title}), ErrUnknownRow, "index %d", index)
		_, err := svc.Profiles.GetProfile(ctx, index)
		assert.ErrorIs(t, err, ErrUnknownRow, "index %d", index)
	}

	profile, err := svc.Profiles.GetProfile(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "A", profile.Title)
}

func TestUpdateAction(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	p, err := svc.Profiles.InsertProfile(ctx, 0, "P", true)
	require.NoError(t, err)
	off, err := svc.Actions.InsertTimedAction(ctx, p, 0, ActionInput{Description: "wake", TimeOfDay: 420, Days: schedule.WorkDays, Payload: "M0"})
	require.NoError(t, err)

	actions, err := svc.Actions.ListActions(ctx, p, ListOptions{})
	require.NoError(t, err)
	rowID := actions[0].RowID

	at := schedule.TimeOfDay(450)
	days := schedule.Weekend
	active := true
	require.NoError(t, svc.Actions.UpdateAction(ctx, rowID, ActionUpdate{TimeOfDay: &at, Days: &days, Active: &active}))

	action, err := svc.Actions.GetAction(ctx, rowID)
	require.NoError(t, err)
	assert.Equal(t, at, action.TimeOfDay)
	assert.Equal(t, days, action.Days)
	assert.True(t, action.Active)
	assert.Equal(t, "wake", action.Description)
	assert.Equal(t, "M0", action.Payload)
	assert.Equal(t, off, action.Offset)

	bad := schedule.TimeOfDay(2000)
	assert.ErrorIs(t, svc.Actions.UpdateAction(ctx, rowID, ActionUpdate{TimeOfDay: &bad}), ErrInvalidInput)

	profile, err := svc.Profiles.GetProfile(ctx, p)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Actions.UpdateAction(ctx, profile.RowID, ActionUpdate{Active: &active}), ErrUnknownRow)

	_, err = svc.Actions.GetAction(ctx, profile.RowID)
	assert.ErrorIs(t, err, ErrUnknownRow)
}

func TestIndexForRow(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t).svc

	_, err := svc.Profiles.InsertProfile(ctx, 0, "A", true)
	require.NoError(t, err)
	b, err := svc.Profiles.InsertProfile(ctx, 0, "B", true)
	require.NoError(t, err)
	_, err = svc.Actions.InsertTimedAction(ctx, b, 0, ActionInput{Description: "a"})
	require.NoError(t, err)

	profile, err := svc.Profiles.GetProfile(ctx, b)
	require.NoError(t, err)
	actions, err := svc.Actions.ListActions(ctx, b, ListOptions{})
	require.NoError(t, err)

	got, err := svc.Profiles.IndexForRow(ctx, profile.RowID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	got, err = svc.Profiles.IndexForRow(ctx, actions[0].RowID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = svc.Profiles.IndexForRow(ctx, 999)
	assert.ErrorIs(t, err, ErrUnknownRow)
}
