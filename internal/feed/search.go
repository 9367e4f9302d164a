package feed

import "strings"

// Transition describes what an effective-term change did to the search.
type Transition int

const (
	Unchanged Transition = iota
	// Activated: the term went from blank to non-blank.
	Activated
	// Refined: the term changed while staying non-blank.
	Refined
	// Cleared: the term went from non-blank to blank.
	Cleared
)

func (t Transition) String() string {
	switch t {
	case Activated:
		return "activated"
	case Refined:
		return "refined"
	case Cleared:
		return "cleared"
	default:
		return "unchanged"
	}
}

// Search debounces raw input into an effective term. It holds no timers:
// the caller schedules Expire with the token returned by Input.
type Search struct {
	raw       string
	effective string
	seq       uint64
}

func NewSearch() *Search {
	return &Search{}
}

// Input records raw keystrokes. When the text changed it returns a fresh
// token that invalidates every earlier one.
func (s *Search) Input(raw string) (uint64, bool) {
	if raw == s.raw {
		return s.seq, false
	}
	s.raw = raw
	s.seq++
	return s.seq, true
}

// Expire promotes the raw input to the effective term if seq is still the
// latest token.
func (s *Search) Expire(seq uint64) Transition {
	if seq != s.seq {
		return Unchanged
	}
	return s.apply(s.raw)
}

// Clear empties both raw and effective terms at once.
func (s *Search) Clear() Transition {
	s.raw = ""
	s.seq++
	return s.apply("")
}

// Invalidate discards any pending debounce without changing the terms.
func (s *Search) Invalidate() {
	s.seq++
}

func (s *Search) apply(term string) Transition {
	was := s.Active()
	prev := s.effective
	s.effective = term
	now := s.Active()

	switch {
	case !was && now:
		return Activated
	case was && !now:
		return Cleared
	case was && now && prev != term:
		return Refined
	default:
		return Unchanged
	}
}

// Active reports whether the trimmed effective term is non-empty.
func (s *Search) Active() bool {
	return strings.TrimSpace(s.effective) != ""
}

func (s *Search) Term() string { return s.effective }
func (s *Search) Raw() string  { return s.raw }

// Pending reports whether raw input is waiting to become effective.
func (s *Search) Pending() bool { return s.raw != s.effective }
