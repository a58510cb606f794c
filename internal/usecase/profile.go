package usecase

import (
	"context"

	"github.com/timeriffic/timeriffic/internal/services"
)

// ProfileTree is a profile together with its timed actions.
type ProfileTree struct {
	services.Profile
	Actions []services.TimedAction `json:"actions"`
}

type Profiles struct {
	svc *services.Services
}

func NewProfiles(svc *services.Services) *Profiles {
	return &Profiles{svc: svc}
}

// Tree lists the profiles in display order with their actions. opts applies
// to both levels.
func (u *Profiles) Tree(ctx context.Context, opts services.ListOptions) ([]ProfileTree, error) {
	profiles, err := u.svc.Profiles.ListProfiles(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := make([]ProfileTree, 0, len(profiles))
	for _, p := range profiles {
		actions, err := u.svc.Actions.ListActions(ctx, p.Index, opts)
		if err != nil {
			return nil, err
		}
		result = append(result, ProfileTree{Profile: p, Actions: actions})
	}
	return result, nil
}

// Profile returns a single profile with its actions.
func (u *Profiles) Profile(ctx context.Context, index int64) (ProfileTree, error) {
	p, err := u.svc.Profiles.GetProfile(ctx, index)
	if err != nil {
		return ProfileTree{}, err
	}
	actions, err := u.svc.Actions.ListActions(ctx, index, services.ListOptions{})
	if err != nil {
		return ProfileTree{}, err
	}
	return ProfileTree{Profile: p, Actions: actions}, nil
}
