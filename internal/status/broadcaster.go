package status

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

const subscriberBuffer = 8

// Broadcaster fans status changes out to subscribers. A subscriber whose
// buffer is full misses that change instead of blocking Set.
type Broadcaster struct {
	subscribers map[uint64]chan models.VolcanoStatus
	nextID      atomic.Uint64
	closed      bool
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan models.VolcanoStatus),
	}
}

// Subscribe registers a new listener. After Close the returned channel is
// already closed.
func (b *Broadcaster) Subscribe() (uint64, <-chan models.VolcanoStatus) {
	id := b.nextID.Add(1)
	ch := make(chan models.VolcanoStatus, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Broadcast delivers st and reports how many subscribers received it.
func (b *Broadcaster) Broadcast(st models.VolcanoStatus) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- st:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close ends every subscription; streams reading from them return.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
