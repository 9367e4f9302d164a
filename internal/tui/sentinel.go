package tui

import (
	"github.com/charmbracelet/bubbles/list"
)

// listSentinel treats the row after the last visible post as on screen
// whenever the list selection sits on the last row.
type listSentinel struct {
	onVisible func()
}

func (s *listSentinel) Observe(onVisible func()) func() {
	s.onVisible = onVisible
	return func() { s.onVisible = nil }
}

// check fires the observer when the selection reached the end of the list.
func (s *listSentinel) check(l list.Model) {
	if s.onVisible == nil {
		return
	}
	n := len(l.Items())
	if n == 0 || l.Index() != n-1 {
		return
	}
	s.onVisible()
}
