package feed

import "github.com/pders01/blogr/internal/storage"

// DefaultPageSize is the number of posts revealed per page.
const DefaultPageSize = 8

// Ticket identifies one pending page load. It is only honoured by the
// window generation that issued it.
type Ticket struct {
	generation uint64
	cursor     int
}

// Cursor is the page the ticket will reveal once settled.
func (t Ticket) Cursor() int { return t.cursor }

// Window reveals the newest posts first, one page at a time.
type Window struct {
	pageSize   int
	collection []*storage.Post
	reversed   []*storage.Post
	visible    []*storage.Post
	cursor     int
	pending    bool
	generation uint64
}

func NewWindow(pageSize int) *Window {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Window{pageSize: pageSize, cursor: 1}
}

// Initialize shows the first page of the reversed collection and drops any
// pending page load.
func (w *Window) Initialize(collection []*storage.Post) {
	w.collection = collection
	w.reversed = make([]*storage.Post, len(collection))
	for i, p := range collection {
		w.reversed[len(collection)-1-i] = p
	}

	end := min(w.pageSize, len(w.reversed))
	w.visible = append([]*storage.Post(nil), w.reversed[:end]...)
	w.cursor = 1
	w.pending = false
	w.generation++
}

// Reset re-initializes from the current collection.
func (w *Window) Reset() {
	w.Initialize(w.collection)
}

// RequestMore reserves the next page. It refuses while a load is pending or
// when nothing is left to reveal.
func (w *Window) RequestMore() (Ticket, bool) {
	if w.pending || !w.HasMore() {
		return Ticket{}, false
	}
	w.pending = true
	w.cursor++
	return Ticket{generation: w.generation, cursor: w.cursor}, true
}

// Settle appends the page reserved by t. Tickets issued before the last
// Initialize, Reset or Cancel are ignored.
func (w *Window) Settle(t Ticket) bool {
	if !w.pending || t.generation != w.generation || t.cursor != w.cursor {
		return false
	}
	w.pending = false

	start := (t.cursor - 1) * w.pageSize
	end := min(t.cursor*w.pageSize, len(w.reversed))
	// Pages are disjoint, so the window must end exactly where this one starts.
	if start != len(w.visible) || start >= end {
		return false
	}
	w.visible = append(w.visible, w.reversed[start:end]...)
	return true
}

// Cancel drops a pending page load without touching the visible posts.
func (w *Window) Cancel() {
	if w.pending {
		w.cursor--
	}
	w.pending = false
	w.generation++
}

// Visible returns a copy of the revealed posts, newest first.
func (w *Window) Visible() []*storage.Post {
	return append([]*storage.Post(nil), w.visible...)
}

func (w *Window) Len() int { return len(w.visible) }
func (w *Window) Total() int { return len(w.reversed) }
func (w *Window) Cursor() int { return w.cursor }
func (w *Window) Pending() bool { return w.pending }
func (w *Window) PageSize() int { return w.pageSize }

// HasMore reports whether posts remain beyond the visible window.
func (w *Window) HasMore() bool {
	return len(w.visible) < len(w.reversed)
}
