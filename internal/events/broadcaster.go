package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/relieflabs/go-drms/internal/models"
)

type Kind string

const (
	KindAssessment Kind = "assessment"
	KindResponse   Kind = "response"
)

// Event is one verification-state change, published after the transition has
// been committed.
type Event struct {
	Kind       Kind                      `json:"kind"`
	RecordID   string                    `json:"record_id"`
	EntityID   string                    `json:"entity_id"`
	IncidentID string                    `json:"incident_id"`
	Status     models.VerificationStatus `json:"status"`
	ActorID    string                    `json:"actor_id,omitempty"`
	At         time.Time                 `json:"at"`
}

type Broadcaster struct {
	subscribers map[uint64]chan Event
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Event),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing consumers to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
