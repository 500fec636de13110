package event

import (
	"log/slog"
	"sync"
)

const subscriberBuffer = 100

type subscription struct {
	ch    chan Event
	types map[Type]bool // empty means every type
}

func (s *subscription) wants(t Type) bool {
	return len(s.types) == 0 || s.types[t]
}

// ChangeBus fans catalogue changes out to in-process subscribers such as the
// audit log.
type ChangeBus struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]*subscription
	dropped int
}

func NewBus() *ChangeBus {
	return &ChangeBus{subs: map[int]*subscription{}}
}

// Publish never blocks the admin request that made the change. A subscriber
// whose buffer is full misses the event and the loss is counted.
func (b *ChangeBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.dropped++
			slog.Warn("catalogue change dropped", "subscriber", id, "type", e.Type, "event_id", e.ID)
		}
	}
}

// Subscribe registers a listener for the given change types, or for all of
// them when none are named. The returned func closes the channel.
func (b *ChangeBus) Subscribe(types ...Type) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, subscriberBuffer), types: map[Type]bool{}}
	for _, t := range types {
		sub.types[t] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(sub.ch)
		})
	}
}

// Dropped reports how many deliveries were lost to full subscribers.
func (b *ChangeBus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
