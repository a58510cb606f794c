package keyspace

import "fmt"

// Scope is an ordered list that shares one index space: either the top-level
// profile list or the timed actions of a single profile.
type Scope struct {
	layout  Layout
	profile int64
	actions bool
}

// Profiles returns the top-level profile scope.
func (l Layout) Profiles() Scope {
	return Scope{layout: l}
}

// Actions returns the action scope of the given profile.
func (l Layout) Actions(profileIndex int64) (Scope, error) {
	if profileIndex <= 0 || profileIndex >= l.ProfileLimit() {
		return Scope{}, fmt.Errorf("%w: profile index %d outside (0, %d)", ErrInvalidIndex, profileIndex, l.ProfileLimit())
	}
	return Scope{layout: l, profile: profileIndex, actions: true}, nil
}

// IsActions reports whether the scope is a profile's action list.
func (s Scope) IsActions() bool { return s.actions }

// ProfileIndex returns the owning profile for action scopes and 0 otherwise.
func (s Scope) ProfileIndex() int64 { return s.profile }

// Limit is the exclusive upper bound of indices in the scope.
func (s Scope) Limit() int64 {
	if s.actions {
		return s.layout.ActionMask()
	}
	return s.layout.ProfileLimit()
}

// Key converts an index of this scope into a row key.
func (s Scope) Key(index int64) int64 {
	if s.actions {
		return s.layout.EncodeProfile(s.profile) + index
	}
	return s.layout.EncodeProfile(index)
}

// Index converts a row key of this scope back into its index.
func (s Scope) Index(key int64) int64 {
	if s.actions {
		return s.layout.ActionOffset(key)
	}
	return s.layout.ProfileIndex(key)
}

// Bounds returns the key range every row of the scope lives in.
func (s Scope) Bounds() Range {
	if s.actions {
		base := s.layout.EncodeProfile(s.profile)
		return Range{Min: base + 1, Max: base + s.layout.ActionMask() + 1}
	}
	return Range{Min: 0, Max: s.layout.EncodeProfile(s.layout.ProfileLimit())}
}

// SearchRange returns the keys whose maximum feeds the allocation of a new
// index before the given one. A before index <= 0 means append.
func (s Scope) SearchRange(before int64) (Range, error) {
	r := s.Bounds()
	if before <= 0 {
		return r, nil
	}
	if before >= s.Limit() {
		return Range{}, fmt.Errorf("%w: before index %d outside scope limit %d", ErrInvalidIndex, before, s.Limit())
	}
	r.Max = s.Key(before)
	return r, nil
}

// Next allocates an index before the given one (or at the end when before
// <= 0), given the largest index currently below it.
func (s Scope) Next(before, currentMax int64) (int64, error) {
	return Allocate(s.Limit(), s.layout.Gap, before, currentMax)
}

// Allocate picks a new index strictly between currentMax and before, or
// strictly after currentMax when appending (before <= 0). Appends leave gap
// free indices behind them until the scope runs low, then halve what is left.
// Inserts bisect the space between the two neighbours.
func Allocate(limit, gap, before, currentMax int64) (int64, error) {
	if before <= 0 {
		switch {
		case currentMax >= limit-1:
			return 0, fmt.Errorf("%w: maximum index %d at limit %d", ErrIndexSpaceExhausted, currentMax, limit)
		case currentMax < limit-gap:
			return currentMax + gap, nil
		default:
			return currentMax + (limit-currentMax)/2, nil
		}
	}

	if before >= limit || currentMax >= before {
		return 0, fmt.Errorf("%w: cannot insert before %d with maximum %d", ErrInvalidIndex, before, currentMax)
	}
	if currentMax == before-1 {
		return 0, fmt.Errorf("%w: indices %d and %d are adjacent", ErrNoGapAvailable, currentMax, before)
	}
	return currentMax + (before-currentMax)/2, nil
}
