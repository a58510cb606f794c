// Package keyspace encodes the composite order keys used by the profile store.
//
// A profile with index P owns the half-open key range [P<<Shift, (P+1)<<Shift).
// The profile row itself sits at the base of the range and its timed actions
// sit at base+offset, 0 < offset < ActionMask. Ordering within either scope is
// plain numeric ordering of the key, so every query the store needs is a range
// or equality predicate over a single integer column.
//
// New positions are allocated in unused numeric space: appends leave a Gap
// after the current maximum and inserts-between bisect the space between two
// neighbours. Existing keys are never rewritten.
package keyspace

import (
	"fmt"
	"math"
)

const (
	// DefaultShift is the number of low-order bits reserved for action offsets.
	DefaultShift uint = 32
	// DefaultGap is the distance left between consecutive appends.
	DefaultGap int64 = 1 << 16
)

// Layout describes how profile indices and action offsets share one int64 key.
type Layout struct {
	Shift uint
	Gap   int64
}

// Default returns the layout used when no configuration overrides it.
func Default() Layout {
	return Layout{Shift: DefaultShift, Gap: DefaultGap}
}

// New validates and returns a layout.
func New(shift uint, gap int64) (Layout, error) {
	l := Layout{Shift: shift, Gap: gap}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate reports whether the layout can hold at least one appended action
// under every profile without colliding with the profile's own key.
func (l Layout) Validate() error {
	if l.Shift < 1 || l.Shift > 62 {
		return fmt.Errorf("%w: shift %d outside [1, 62]", ErrInvalidLayout, l.Shift)
	}
	if l.Gap <= 0 {
		return fmt.Errorf("%w: gap must be positive, got %d", ErrInvalidLayout, l.Gap)
	}
	if l.Gap >= l.ActionMask() {
		return fmt.Errorf("%w: gap %d does not fit below action mask %d", ErrInvalidLayout, l.Gap, l.ActionMask())
	}
	if l.Gap >= l.ProfileLimit() {
		return fmt.Errorf("%w: gap %d does not fit below profile limit %d", ErrInvalidLayout, l.Gap, l.ProfileLimit())
	}
	return nil
}

// ActionMask is the exclusive upper bound for action offsets under a profile.
func (l Layout) ActionMask() int64 {
	return int64(1)<<l.Shift - 1
}

// ProfileLimit is the exclusive upper bound for profile indices.
func (l Layout) ProfileLimit() int64 {
	return math.MaxInt64 >> l.Shift
}

// EncodeProfile returns the key of the profile row with the given index.
func (l Layout) EncodeProfile(index int64) int64 {
	return index << l.Shift
}

// ProfileKey is the checked form of EncodeProfile. It rejects indices outside
// (0, ProfileLimit) instead of letting the shift wrap.
func (l Layout) ProfileKey(index int64) (int64, error) {
	if index <= 0 || index >= l.ProfileLimit() {
		return 0, fmt.Errorf("%w: profile index %d outside (0, %d)", ErrInvalidIndex, index, l.ProfileLimit())
	}
	return l.EncodeProfile(index), nil
}

// EncodeAction returns the key of the action at offset under profile index.
func (l Layout) EncodeAction(profileIndex, offset int64) (int64, error) {
	if offset < 0 || offset >= l.ActionMask() {
		return 0, fmt.Errorf("%w: action offset %d outside [0, %d)", ErrInvalidIndex, offset, l.ActionMask())
	}
	return l.EncodeProfile(profileIndex) + offset, nil
}

// ProfileIndex extracts the owning profile index from any key.
func (l Layout) ProfileIndex(key int64) int64 {
	return key >> l.Shift
}

// ActionOffset extracts the action offset from a key.
func (l Layout) ActionOffset(key int64) int64 {
	return key & l.ActionMask()
}

// Decode splits a key into its profile index and offset.
func (l Layout) Decode(key int64) (profileIndex, offset int64) {
	return l.ProfileIndex(key), l.ActionOffset(key)
}

// ProfileRange is the key range holding a profile row and all of its actions.
func (l Layout) ProfileRange(index int64) Range {
	base := l.EncodeProfile(index)
	return Range{Min: base, Max: base + l.ActionMask() + 1}
}

// Range is a half-open key interval [Min, Max).
type Range struct {
	Min int64
	Max int64
}

// Contains reports whether key lies within the range.
func (r Range) Contains(key int64) bool {
	return key >= r.Min && key < r.Max
}
