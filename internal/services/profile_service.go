package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/timeriffic/timeriffic/internal/database"
	"github.com/timeriffic/timeriffic/internal/keyspace"
)

// ProfileService manages the top-level profile list.
type ProfileService struct {
	store  *database.Store
	rows   *database.RowRepository
	layout keyspace.Layout
	logger *zap.Logger
}

// NewProfileService creates a ProfileService over store using layout for
// order keys.
func NewProfileService(store *database.Store, layout keyspace.Layout, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		store:  store,
		rows:   database.NewRowRepository(store),
		layout: layout,
		logger: logger,
	}
}

// InsertProfile adds a profile before the profile at beforeIndex, or at the
// end of the list when beforeIndex <= 0, and returns its index.
func (s *ProfileService) InsertProfile(ctx context.Context, beforeIndex int64, title string, enabled bool) (int64, error) {
	if err := validateInput(ProfileUpdate{Title: &title}); err != nil {
		return 0, err
	}

	var index int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		index, err = s.insertProfile(txCtx, beforeIndex, title, enabled)
		return err
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

func (s *ProfileService) insertProfile(ctx context.Context, beforeIndex int64, title string, enabled bool) (int64, error) {
	scope := s.layout.Profiles()

	index, err := allocate(ctx, s.rows, scope, database.KindProfile, beforeIndex)
	if err != nil {
		return 0, err
	}

	id, err := s.rows.Insert(ctx, database.NewRow{
		Kind:        database.KindProfile,
		OrderKey:    scope.Key(index),
		Description: title,
		Enabled:     enabled,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("insert profile",
		zap.Int64("index", index),
		zap.Int64("row", id))
	return index, nil
}

// UpdateProfile changes the profile with the given row id.
func (s *ProfileService) UpdateProfile(ctx context.Context, rowID int64, upd ProfileUpdate) error {
	if err := validateInput(upd); err != nil {
		return err
	}
	return updateOne(ctx, s.rows,
		database.AllRows().ID(rowID).Kind(database.KindProfile),
		upd.values(),
		fmt.Sprintf("profile row %d", rowID))
}

// UpdateProfileByIndex changes the profile with the given index.
func (s *ProfileService) UpdateProfileByIndex(ctx context.Context, index int64, upd ProfileUpdate) error {
	if err := validateInput(upd); err != nil {
		return err
	}
	filter, err := s.profileFilter(index)
	if err != nil {
		return err
	}
	return updateOne(ctx, s.rows,
		filter,
		upd.values(),
		fmt.Sprintf("profile index %d", index))
}

// DeleteProfile removes the profile with the given row id together with all
// of its timed actions, and returns the number of rows removed.
func (s *ProfileService) DeleteProfile(ctx context.Context, rowID int64) (int64, error) {
	var deleted int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		row, err := s.rows.FindByID(txCtx, rowID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("%w: profile row %d", ErrUnknownRow, rowID)
			}
			return err
		}
		if row.Kind != database.KindProfile {
			return fmt.Errorf("%w: row %d is a %s", ErrUnknownRow, rowID, row.Kind)
		}

		index := s.layout.ProfileIndex(row.OrderKey)
		deleted, err = s.rows.Delete(txCtx, database.AllRows().In(s.layout.ProfileRange(index)))
		if err != nil {
			return err
		}

		s.logger.Debug("delete profile",
			zap.Int64("index", index),
			zap.Int64("row", rowID),
			zap.Int64("deleted", deleted))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListProfiles returns the profiles in display order.
func (s *ProfileService) ListProfiles(ctx context.Context, opts ListOptions) ([]Profile, error) {
	rows, err := s.rows.List(ctx, opts.apply(database.AllRows().Kind(database.KindProfile)))
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, profileFromRow(s.layout, row))
	}
	return profiles, nil
}

// GetProfile returns the profile with the given index.
func (s *ProfileService) GetProfile(ctx context.Context, index int64) (Profile, error) {
	filter, err := s.profileFilter(index)
	if err != nil {
		return Profile{}, err
	}
	rows, err := s.rows.List(ctx, filter)
	if err != nil {
		return Profile{}, err
	}
	if len(rows) == 0 {
		return Profile{}, fmt.Errorf("%w: profile index %d", ErrUnknownRow, index)
	}
	return profileFromRow(s.layout, rows[0]), nil
}

// IndexForRow returns the index of the profile owning the given row, which
// may be the profile itself or one of its timed actions.
func (s *ProfileService) IndexForRow(ctx context.Context, rowID int64) (int64, error) {
	row, err := s.rows.FindByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, fmt.Errorf("%w: row %d", ErrUnknownRow, rowID)
		}
		return 0, err
	}
	return s.layout.ProfileIndex(row.OrderKey), nil
}

// profileFilter matches the profile row with the given index. An index the
// layout cannot encode never names a row.
func (s *ProfileService) profileFilter(index int64) (database.Filter, error) {
	key, err := s.layout.ProfileKey(index)
	if err != nil {
		return database.Filter{}, fmt.Errorf("%w: %w", ErrUnknownRow, err)
	}
	return database.AllRows().Kind(database.KindProfile).Gte(key).Lt(key + 1), nil
}

// allocate computes a free index in scope before beforeIndex, or after the
// last index when beforeIndex <= 0. It must run inside the transaction that
// inserts the row.
func allocate(ctx context.Context, rows *database.RowRepository, scope keyspace.Scope, kind database.RowKind, beforeIndex int64) (int64, error) {
	r, err := scope.SearchRange(beforeIndex)
	if err != nil {
		return 0, err
	}

	maxKey, found, err := rows.MaxOrderKey(ctx, database.AllRows().Kind(kind).In(r))
	if err != nil {
		return 0, err
	}

	var current int64
	if found {
		current = scope.Index(maxKey)
	}
	return scope.Next(beforeIndex, current)
}

// updateOne applies values to the single row matched by f.
func updateOne(ctx context.Context, rows *database.RowRepository, f database.Filter, values database.RowValues, what string) error {
	if values.IsEmpty() {
		n, err := rows.Count(ctx, f)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownRow, what)
		}
		return nil
	}

	n, err := rows.Update(ctx, f, values)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, what)
	}
	return nil
}
