package theme

import (
	"fmt"

	"github.com/pders01/blogr/internal/debuglog"
)

// Mode is the colour scheme of the client.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == Light || m == Dark
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

func (m Mode) String() string { return string(m) }

// ParseMode returns the mode named by s, or Light with ok=false when s is
// not a known mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	if !m.Valid() {
		return Light, false
	}
	return m, true
}

// Persister stores the mode between runs. storage.Store implements it.
type Persister interface {
	LoadTheme() (string, error)
	SaveTheme(mode string) error
}

// State is the single owner of the theme flag. Every transition is written
// through to the persister.
type State struct {
	mode      Mode
	persister Persister
	listeners []func(Mode)
}

// Load reads the persisted mode. Absent, unreadable or unknown values fall
// back to Light.
func Load(p Persister) *State {
	s := &State{mode: Light, persister: p}
	if p == nil {
		return s
	}

	raw, err := p.LoadTheme()
	if err != nil {
		debuglog.Warnf("theme: reading persisted mode: %v", err)
		return s
	}
	if mode, ok := ParseMode(raw); ok {
		s.mode = mode
	} else if raw != "" {
		debuglog.Warnf("theme: ignoring unknown persisted mode %q", raw)
	}
	return s
}

func (s *State) Mode() Mode { return s.mode }

// Toggle flips between light and dark and persists the result.
func (s *State) Toggle() error {
	return s.Set(s.mode.Opposite())
}

// Set switches to mode and persists it. The in-memory mode changes even if
// persisting fails; the error is returned so the caller can report it.
func (s *State) Set(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown theme mode %q", mode)
	}
	s.mode = mode
	for _, fn := range s.listeners {
		fn(mode)
	}
	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveTheme(mode.String()); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// OnChange registers fn to run after every transition.
func (s *State) OnChange(fn func(Mode)) {
	s.listeners = append(s.listeners, fn)
}
