package domain

import (
	"sync"
	"time"
)

// Event is something that happened to an aggregate and is published on the
// message bus after the owning transaction commits.
type Event interface {
	Type() string
	PublishedAt() time.Time
}

type NoCopy struct {
	sync.Mutex
}

// Aggregate is embedded by entities that raise events, such as the
// measurement record. Pushed events sit on the entity until the storage
// layer pops them for publication.
type Aggregate struct {
	NoCopy
	events []Event
}

func (a *Aggregate) PopEvents() []Event {
	events := a.events
	a.events = make([]Event, 0)
	return events
}

func (a *Aggregate) PushEvent(e Event) {
	a.events = append(a.events, e)
}
