package feed

// Sentinel is anything that can tell when the row after the last visible
// post comes into view. Observe returns a function that stops observation.
type Sentinel interface {
	Observe(onVisible func()) (detach func())
}

// Scheduler delivers a ticket back to Settle after the settle delay.
type Scheduler func(Ticket)

// Trigger requests the next page when the sentinel becomes visible.
type Trigger struct {
	window   *Window
	filter   *Search
	schedule Scheduler
	detach   func()
}

func NewTrigger(w *Window, s *Search, schedule Scheduler) *Trigger {
	return &Trigger{window: w, filter: s, schedule: schedule}
}

// Attach starts observing sentinel, replacing any earlier observation.
func (t *Trigger) Attach(sentinel Sentinel) {
	t.Detach()
	t.detach = sentinel.Observe(t.Fire)
}

// Detach stops observation. Safe to call more than once.
func (t *Trigger) Detach() {
	if t.detach != nil {
		t.detach()
		t.detach = nil
	}
}

func (t *Trigger) Attached() bool { return t.detach != nil }

// Fire reacts to the sentinel becoming visible. It does nothing while a
// search is active, a page is pending or the window covers the collection.
func (t *Trigger) Fire() {
	if t.filter.Active() || t.window.Pending() || !t.window.HasMore() {
		return
	}
	ticket, ok := t.window.RequestMore()
	if !ok {
		return
	}
	if t.schedule != nil {
		t.schedule(ticket)
	}
}
