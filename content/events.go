package content

import (
	"time"

	"github.com/jmgilman/go/store"
)

// EventType names a topic on the manager's event bus.
type EventType string

// Published events. Handlers receive an Event.
const (
	EventStored         EventType = "content.stored"
	EventDeleted        EventType = "content.deleted"
	EventAccessed       EventType = "content.accessed"
	EventInvalidated    EventType = "content.invalidated"
	EventRescanStarted  EventType = "content.rescan.started"
	EventRescanFinished EventType = "content.rescan.finished"
)

// Event describes a change or access. Invalidation has already happened by
// the time an event is published.
type Event struct {
	Type      EventType
	Store     store.Key
	Path      string
	RequestID string
	Time      time.Time

	// Groups lists the groups whose merges were cleared, for
	// EventInvalidated.
	Groups []store.Key

	// Paths lists the generated paths cleared, for EventInvalidated, or
	// the files visited, for EventRescanFinished.
	Paths []string

	// Err is set on EventRescanFinished when the rescan failed.
	Err error
}

// Subscribe registers fn for events of type t. Handlers run synchronously
// on the publishing goroutine.
func (m *Manager) Subscribe(t EventType, fn func(Event)) error {
	return m.bus.Subscribe(string(t), fn)
}

// SubscribeAsync registers fn to run on its own goroutine per event.
func (m *Manager) SubscribeAsync(t EventType, fn func(Event)) error {
	return m.bus.SubscribeAsync(string(t), fn, false)
}

// Unsubscribe removes a handler registered with Subscribe.
func (m *Manager) Unsubscribe(t EventType, fn func(Event)) error {
	return m.bus.Unsubscribe(string(t), fn)
}

func (m *Manager) publish(e Event) {
	if e.Time.IsZero() {
		e.Time = m.now()
	}
	if m.bus.HasCallback(string(e.Type)) {
		m.bus.Publish(string(e.Type), e)
	}
}
