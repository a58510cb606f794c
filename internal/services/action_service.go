package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/timeriffic/timeriffic/internal/database"
	"github.com/timeriffic/timeriffic/internal/keyspace"
)

// ActionService manages the timed actions of each profile.
type ActionService struct {
	store  *database.Store
	rows   *database.RowRepository
	layout keyspace.Layout
	logger *zap.Logger
}

// NewActionService creates an ActionService over store using layout for
// order keys.
func NewActionService(store *database.Store, layout keyspace.Layout, logger *zap.Logger) *ActionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionService{
		store:  store,
		rows:   database.NewRowRepository(store),
		layout: layout,
		logger: logger,
	}
}

// InsertTimedAction adds an action to the profile at profileIndex, before the
// action at beforeOffset or at the end when beforeOffset <= 0. It returns
// the new action's offset.
func (s *ActionService) InsertTimedAction(ctx context.Context, profileIndex, beforeOffset int64, in ActionInput) (int64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}

	var offset int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		offset, err = s.insertTimedAction(txCtx, profileIndex, beforeOffset, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return offset, nil
}

func (s *ActionService) insertTimedAction(ctx context.Context, profileIndex, beforeOffset int64, in ActionInput) (int64, error) {
	scope, err := s.layout.Actions(profileIndex)
	if err != nil {
		return 0, err
	}

	profileKey := s.layout.EncodeProfile(profileIndex)
	n, err := s.rows.Count(ctx, database.AllRows().Kind(database.KindProfile).Gte(profileKey).Lt(profileKey+1))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: profile index %d", ErrUnknownRow, profileIndex)
	}

	offset, err := allocate(ctx, s.rows, scope, database.KindTimedAction, beforeOffset)
	if err != nil {
		return 0, err
	}

	id, err := s.rows.Insert(ctx, database.NewRow{
		Kind:          database.KindTimedAction,
		OrderKey:      scope.Key(offset),
		Description:   in.Description,
		Enabled:       in.Active,
		TimeOfDay:     int(in.TimeOfDay),
		DaysOfWeek:    int(in.Days),
		ActionPayload: in.Payload,
		NextFireMs:    in.NextFireMs,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("insert timed action",
		zap.Int64("profile", profileIndex),
		zap.Int64("index", offset),
		zap.Int64("row", id))
	return offset, nil
}

// UpdateAction changes the timed action with the given row id.
func (s *ActionService) UpdateAction(ctx context.Context, rowID int64, upd ActionUpdate) error {
	if err := validateInput(upd); err != nil {
		return err
	}
	return updateOne(ctx, s.rows,
		database.AllRows().ID(rowID).Kind(database.KindTimedAction),
		upd.values(),
		fmt.Sprintf("timed action row %d", rowID))
}

// DeleteAction removes the timed action with the given row id and returns
// the number of rows removed, 0 if there was no such action.
func (s *ActionService) DeleteAction(ctx context.Context, rowID int64) (int64, error) {
	var deleted int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.rows.Delete(txCtx, database.AllRows().ID(rowID).Kind(database.KindTimedAction))
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("delete timed action",
		zap.Int64("row", rowID),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

// ListActions returns the timed actions of the profile at profileIndex in
// display order.
func (s *ActionService) ListActions(ctx context.Context, profileIndex int64, opts ListOptions) ([]TimedAction, error) {
	scope, err := s.layout.Actions(profileIndex)
	if err != nil {
		return nil, err
	}

	rows, err := s.rows.List(ctx, opts.apply(database.AllRows().Kind(database.KindTimedAction).In(scope.Bounds())))
	if err != nil {
		return nil, err
	}

	actions := make([]TimedAction, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, actionFromRow(s.layout, row))
	}
	return actions, nil
}

// GetAction returns the timed action with the given row id.
func (s *ActionService) GetAction(ctx context.Context, rowID int64) (TimedAction, error) {
	rows, err := s.rows.List(ctx, database.AllRows().ID(rowID).Kind(database.KindTimedAction))
	if err != nil {
		return TimedAction{}, err
	}
	if len(rows) == 0 {
		return TimedAction{}, fmt.Errorf("%w: timed action row %d", ErrUnknownRow, rowID)
	}
	return actionFromRow(s.layout, rows[0]), nil
}
