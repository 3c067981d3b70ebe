package server

import (
	"encoding/json"
	"sync"

	"github.com/geunssam/dodgeballhub/internal/session"
)

// Broker is an in-process pub/sub for match events, keyed by match ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given match.
func (b *Broker) Subscribe(matchID string) chan []byte {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	if b.subs[matchID] == nil {
		b.subs[matchID] = make(map[chan []byte]struct{})
	}
	b.subs[matchID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the match's subscribers.
func (b *Broker) Unsubscribe(matchID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[matchID], ch)
	if len(b.subs[matchID]) == 0 {
		delete(b.subs, matchID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given match. Routine
// events are dropped for a slow subscriber; match_end and badges events
// evict the oldest buffered event instead, so they always arrive.
func (b *Broker) Publish(matchID string, event session.Event) {
	data, _ := json.Marshal(event)
	if mustDeliver(event.Type) {
		// The write lock keeps other publishers from refilling a freed slot.
		b.mu.Lock()
		for ch := range b.subs[matchID] {
			deliver(ch, data)
		}
		b.mu.Unlock()
		return
	}

	b.mu.RLock()
	for ch := range b.subs[matchID] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
}

func mustDeliver(typ string) bool {
	return typ == session.EventMatchEnd || typ == session.EventBadges
}

func deliver(ch chan []byte, data []byte) {
	for {
		select {
		case ch <- data:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

var _ session.Publisher = (*Broker)(nil)
