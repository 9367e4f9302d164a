package feed

import (
	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/search"
	"github.com/pders01/blogr/internal/storage"
)

// DisplayState is what the feed view should render.
type DisplayState int

const (
	StateLoading DisplayState = iota
	// StateEmpty: the collection has no posts at all.
	StateEmpty
	// StateNoMatches: a search is active and matched nothing.
	StateNoMatches
	StateBrowsing
	StateSearching
)

func (s DisplayState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateNoMatches:
		return "no-matches"
	case StateBrowsing:
		return "browsing"
	case StateSearching:
		return "searching"
	default:
		return "unknown"
	}
}

// Controller owns the window, search filter and scroll trigger of one
// feed view.
type Controller struct {
	window  *Window
	filter  *Search
	trigger *Trigger
	matcher search.Matcher

	collection []*storage.Post
	matches    []*storage.Post
	loaded     bool
	disposed   bool
}

// NewController wires a feed. A nil matcher means title substring matching.
func NewController(pageSize int, matcher search.Matcher, schedule Scheduler) *Controller {
	if matcher == nil {
		matcher = search.NewTitleMatcher()
	}
	w := NewWindow(pageSize)
	s := NewSearch()
	return &Controller{
		window:  w,
		filter:  s,
		trigger: NewTrigger(w, s, schedule),
		matcher: matcher,
	}
}

// SetCollection installs a freshly fetched collection and resets the window.
func (c *Controller) SetCollection(posts []*storage.Post) {
	if c.disposed {
		return
	}
	c.collection = posts
	c.loaded = true
	if l, ok := c.matcher.(search.CollectionListener); ok {
		l.OnCollection(posts)
	}
	c.window.Initialize(posts)
	c.refreshMatches()
	debuglog.Debugf("feed: collection set, %d posts, %d visible", len(posts), c.window.Len())
}

// Input records raw search text; see Search.Input.
func (c *Controller) Input(raw string) (uint64, bool) {
	if c.disposed {
		return 0, false
	}
	return c.filter.Input(raw)
}

// Expire applies a debounce token. Activation and clearing both reset the
// window so browsing resumes from the first page.
func (c *Controller) Expire(seq uint64) Transition {
	if c.disposed {
		return Unchanged
	}
	return c.apply(c.filter.Expire(seq))
}

// ClearSearch clears the term immediately.
func (c *Controller) ClearSearch() Transition {
	if c.disposed {
		return Unchanged
	}
	return c.apply(c.filter.Clear())
}

func (c *Controller) apply(tr Transition) Transition {
	switch tr {
	case Activated:
		c.window.Reset()
		c.refreshMatches()
	case Refined:
		c.refreshMatches()
	case Cleared:
		c.window.Reset()
		c.matches = nil
	}
	if tr != Unchanged {
		debuglog.Debugf("feed: search %s, term %q", tr, c.filter.Term())
	}
	return tr
}

func (c *Controller) refreshMatches() {
	if !c.filter.Active() {
		c.matches = nil
		return
	}
	c.matches = c.matcher.Match(c.collection, c.filter.Term())
}

// Attach starts observing the sentinel for infinite scroll.
func (c *Controller) Attach(sentinel Sentinel) {
	if c.disposed {
		return
	}
	c.trigger.Attach(sentinel)
}

// Settle applies a page ticket delivered by the scheduler.
func (c *Controller) Settle(t Ticket) bool {
	if c.disposed {
		return false
	}
	return c.window.Settle(t)
}

// Display returns the posts to render: matches in collection order while
// searching, otherwise the visible window newest first.
func (c *Controller) Display() []*storage.Post {
	if c.filter.Active() {
		return append([]*storage.Post(nil), c.matches...)
	}
	return c.window.Visible()
}

func (c *Controller) State() DisplayState {
	switch {
	case !c.loaded:
		return StateLoading
	case c.filter.Active() && len(c.matches) == 0:
		return StateNoMatches
	case c.filter.Active():
		return StateSearching
	case len(c.collection) == 0:
		return StateEmpty
	default:
		return StateBrowsing
	}
}

// HasMore reports whether scrolling can still reveal posts.
func (c *Controller) HasMore() bool {
	return !c.filter.Active() && c.window.HasMore()
}

// Loading reports whether a page load is waiting to settle.
func (c *Controller) Loading() bool { return c.window.Pending() }

func (c *Controller) Term() string { return c.filter.Term() }
func (c *Controller) RawTerm() string { return c.filter.Raw() }
func (c *Controller) Searching() bool { return c.filter.Active() }
func (c *Controller) Total() int { return len(c.collection) }
func (c *Controller) Cursor() int { return c.window.Cursor() }
func (c *Controller) Disposed() bool { return c.disposed }
func (c *Controller) Window() *Window { return c.window }
func (c *Controller) Loaded() bool { return c.loaded }
func (c *Controller) Trigger() *Trigger { return c.trigger }

// Find looks a post up by id in the current collection.
func (c *Controller) Find(id storage.PostID) (*storage.Post, bool) {
	for _, p := range c.collection {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Dispose detaches the trigger and invalidates every outstanding debounce
// and settle token. The controller ignores all further input.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.trigger.Detach()
	c.window.Cancel()
	c.filter.Invalidate()
	c.disposed = true
}
