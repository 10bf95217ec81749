package ranking

import (
	"fmt"
	"math"
	"sort"
)

// Override pins a product to a 0-based position.
type Override struct {
	ProductName string `json:"product_name"`
	Position    int    `json:"position"`

	seq uint64
}

// State is the mutable per-touchpoint engine state: manual overrides, the
// blacklist and seasonal boosts. It is not safe for concurrent use; the
// owner serialises access and invalidates its cache alongside every change.
type State struct {
	overrides map[string]Override
	blacklist map[string]struct{}
	boosts    map[string]float64
	seq       uint64
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		overrides: make(map[string]Override),
		blacklist: make(map[string]struct{}),
		boosts:    make(map[string]float64),
	}
}

// SetOverride pins name to a 0-based position. Re-registering a name moves
// it and makes it the most recent registration.
func (s *State) SetOverride(name string, position int) error {
	if position < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	s.seq++
	s.overrides[name] = Override{ProductName: name, Position: position, seq: s.seq}
	return nil
}

// ClearOverride removes the override for name.
func (s *State) ClearOverride(name string) error {
	if _, ok := s.overrides[name]; !ok {
		return fmt.Errorf("%w: %s", ErrOverrideNotFound, name)
	}
	delete(s.overrides, name)
	return nil
}

// Blacklist excludes name from ranking. Repeated calls are no-ops.
func (s *State) Blacklist(name string) {
	s.blacklist[name] = struct{}{}
}

// IsBlacklisted reports whether name is excluded.
func (s *State) IsBlacklisted(name string) bool {
	_, ok := s.blacklist[name]
	return ok
}

// SetSeasonalBoost registers a score multiplier for name.
func (s *State) SetSeasonalBoost(name string, multiplier float64) error {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return fmt.Errorf("%w: multiplier must be positive, got %v", ErrInvalidBoost, multiplier)
	}
	s.boosts[name] = multiplier
	return nil
}

// Boost returns the seasonal multiplier of name, if any.
func (s *State) Boost(name string) (float64, bool) {
	m, ok := s.boosts[name]
	return m, ok
}

// HasOverride reports whether name has an active override.
func (s *State) HasOverride(name string) bool {
	_, ok := s.overrides[name]
	return ok
}

// Overrides returns active overrides in registration order.
func (s *State) Overrides() []Override {
	out := make([]Override, 0, len(s.overrides))
	for _, o := range s.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Blacklisted returns the excluded names in lexical order.
func (s *State) Blacklisted() []string {
	out := make([]string, 0, len(s.blacklist))
	for name := range s.blacklist {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OverrideCount returns the number of active overrides.
func (s *State) OverrideCount() int { return len(s.overrides) }

// BlacklistCount returns the number of blacklisted names.
func (s *State) BlacklistCount() int { return len(s.blacklist) }

// BoostCount returns the number of registered seasonal boosts.
func (s *State) BoostCount() int { return len(s.boosts) }
