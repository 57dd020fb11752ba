package events

import "sync"

// Bus provides simple in-process pub/sub. Mutating operations on the
// workflow and store publish here; the websocket progress handler and tests
// subscribe. Delivery is best-effort: slow subscribers drop events instead
// of blocking a publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan any
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan any)}
}

// Subscribe registers a new subscriber and returns its id together with the
// receive channel. The id must be passed to Unsubscribe when done.
func (b *Bus) Subscribe() (int, <-chan any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan any, 16)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber without blocking.
func (b *Bus) Publish(ev any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
