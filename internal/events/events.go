// Package events is the typed event bus between the core engines and
// whatever renders their state.
//
// Each subscriber owns a buffered channel. Publish never blocks: an event
// that does not fit into a subscriber's buffer is dropped for that
// subscriber only and counted.
package events

import (
	"sync"
	"time"

	"github.com/yoruboku/alarm2/internal/domain"
)

// Kind tags the concrete type of an Event.
type Kind string

// Event kinds.
const (
	KindAlarmFiring   Kind = "alarm_firing"
	KindRingResolved  Kind = "ring_resolved"
	KindAlarmSnoozed  Kind = "alarm_snoozed"
	KindTimerFinished Kind = "timer_finished"
	KindTimerTick     Kind = "timer_tick"
)

// Event is implemented by every event payload.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
}

// AlarmFiring is published when a ring session starts.
type AlarmFiring struct {
	Alarm      domain.Alarm
	CodeLength int
	Snoozed    bool
	At         time.Time
}

// RingResolved is published when a ring session reaches a terminal status.
type RingResolved struct {
	AlarmID  string
	Status   domain.RingStatus
	Attempts int
	At       time.Time
}

// AlarmSnoozed is published when a snooze wake is booked.
type AlarmSnoozed struct {
	AlarmID string
	FireAt  time.Time
	At      time.Time
}

// TimerFinished is published exactly once per countdown that reaches zero.
type TimerFinished struct {
	TimerID string
	At      time.Time
}

// TimerTick carries the remaining time of a running countdown.
type TimerTick struct {
	TimerID   string
	Remaining time.Duration
	At        time.Time
}

// Kind implements Event.
func (AlarmFiring) Kind() Kind { return KindAlarmFiring }

// Kind implements Event.
func (RingResolved) Kind() Kind { return KindRingResolved }

// Kind implements Event.
func (AlarmSnoozed) Kind() Kind { return KindAlarmSnoozed }

// Kind implements Event.
func (TimerFinished) Kind() Kind { return KindTimerFinished }

// Kind implements Event.
func (TimerTick) Kind() Kind { return KindTimerTick }

// OccurredAt implements Event.
func (e AlarmFiring) OccurredAt() time.Time { return e.At }

// OccurredAt implements Event.
func (e RingResolved) OccurredAt() time.Time { return e.At }

// OccurredAt implements Event.
func (e AlarmSnoozed) OccurredAt() time.Time { return e.At }

// OccurredAt implements Event.
func (e TimerFinished) OccurredAt() time.Time { return e.At }

// OccurredAt implements Event.
func (e TimerTick) OccurredAt() time.Time { return e.At }

// Publisher is the sending half of the bus, as seen by the engines.
type Publisher interface {
	Publish(event Event)
}

// Bus fans events out to subscribers.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]*subscription
	nextID      int
	dropped     int
	closed      bool
}

type subscription struct {
	ch    chan Event
	kinds map[Kind]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]*subscription),
	}
}

// Subscribe registers a subscriber with the given buffer. When kinds is
// not empty only those kinds are delivered. The returned function
// unsubscribes and closes the channel; calling it twice is safe.
func (b *Bus) Subscribe(buffer int, kinds ...Kind) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	sub := &subscription{
		ch: make(chan Event, buffer),
	}

	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = sub

	var once sync.Once

	return sub.ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[id]
	if !ok {
		return
	}

	delete(b.subscribers, id)
	close(sub.ch)
}

// Publish delivers event to every interested subscriber without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		if sub.kinds != nil {
			if _, ok := sub.kinds[event.Kind()]; !ok {
				continue
			}
		}

		select {
		case sub.ch <- event:
		default:
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

// Close unsubscribes everyone. Later subscriptions receive a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		close(sub.ch)
	}
}
