package syncer

import (
	"sync"
	"time"
)

// CycleResult is the payload delivered to subscribers after every sync
// cycle, successful or not.
type CycleResult struct {
	// Err is nil on success; otherwise the cycle-level failure.
	Err error

	// PendingCount is the number of dirty records after the cycle.
	PendingCount int

	// CompletedAt is when the cycle finished, in UTC.
	CompletedAt time.Time
}

// Broadcaster fans sync-cycle completion events out to any number of
// independent listeners. Publish never blocks: a subscriber that is not
// draining its channel misses events rather than stalling the engine.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan CycleResult
	next int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan CycleResult)}
}

// Subscribe registers a listener. The returned cancel function removes the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan CycleResult, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan CycleResult, 8)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers r to all current subscribers without blocking.
func (b *Broadcaster) Publish(r CycleResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- r:
		default:
		}
	}
}
