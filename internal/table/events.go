package table

// Event names a public table event.
type Event string

const (
	// EventChange fires on every data mutation: add, update, remove,
	// clear, import. The payload's Action distinguishes them.
	EventChange Event = "change"

	// EventValidate fires after each Validate call.
	EventValidate Event = "validate"

	// EventError fires on guarded refusals and persistence failures.
	EventError Event = "error"

	// EventRowAdded fires after a row lands in the store.
	EventRowAdded Event = "rowAdded"

	// EventRowRemoved fires after a row leaves the store.
	EventRowRemoved Event = "rowRemoved"
)

// Payload carries event details. Fields are populated as applicable.
type Payload struct {
	Action  string // "add" | "update" | "remove" | "clear" | "import" | ...
	RowID   string
	Column  string
	Value   any
	Message string
	Result  *Result // validation outcome, on EventValidate
}

// Handler observes table events. Handlers run outside the table's internal
// lock, in the order they were registered.
type Handler func(Payload)

type queuedEvent struct {
	event   Event
	payload Payload
}

// On registers a handler for an event. Registration after Destroy is a
// no-op.
func (t *Table) On(event Event, h Handler) {
	if h == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.handlers[event] = append(t.handlers[event], h)
}

// queueEvent records an emission while the lock is held. dispatch delivers
// queued events after the lock is released so handlers may safely call back
// into the table.
func (t *Table) queueEvent(event Event, p Payload) {
	t.pendingEvents = append(t.pendingEvents, queuedEvent{event: event, payload: p})
}

func (t *Table) drainEvents() []queuedEvent {
	evs := t.pendingEvents
	t.pendingEvents = nil
	return evs
}

func (t *Table) dispatch(evs []queuedEvent) {
	for _, ev := range evs {
		t.mu.Lock()
		hs := append([]Handler(nil), t.handlers[ev.event]...)
		t.mu.Unlock()
		for _, h := range hs {
			h(ev.payload)
		}
	}
}
