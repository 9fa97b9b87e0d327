package controller

import "sync"

// subscriberBuffer bounds each subscription channel. Slow consumers drop
// intermediate snapshots rather than stall the worker; every consumer still
// converges on the latest state because snapshots are self-contained.
const subscriberBuffer = 16

type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan State
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan State)}
}

// subscribe registers a listener for state transitions. The returned cancel
// function removes the subscription and closes the channel.
func (b *broadcaster) subscribe() (<-chan State, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan State, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish fans a snapshot out to every subscriber without blocking.
func (b *broadcaster) publish(state State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
