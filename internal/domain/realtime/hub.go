// realtime implements the in-process record change feed. Subscribing hands
// back an explicit Subscription handle; the only way to receive events is to
// hold one, and dropping it via Close is the only way to unsubscribe, so a
// forgotten string-keyed registry entry is impossible to express.
package realtime

import (
	"sync"
	"time"

	"github.com/ghxstship/recordguard/internal/domain/org"
	"github.com/ghxstship/recordguard/internal/domain/record"
)

// Event describes one accepted mutation, as seen by feed subscribers
type Event struct {
	Org      org.Id      `json:"org"`
	RecordID record.Id   `json:"record_id"`
	Kind     record.Kind `json:"kind"`
	Op       string      `json:"op"`
	// Version token the record carried after the mutation; empty for deletes
	Version string    `json:"version,omitempty"`
	At      time.Time `json:"at"`
}

// Subscription is the handle returned by Hub.Subscribe. Receive from C;
// call Close exactly once when done. After Close, C is closed.
type Subscription struct {
	C <-chan Event

	hub    *Hub
	org    org.Id
	id     uint64
	closed bool
	mu     sync.Mutex
}

// Close detaches the Subscription from its Hub and closes C. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.hub.unsubscribe(s.org, s.id)
}

// Hub fans record change Events out to per-org subscribers.
type Hub struct {
	mu     sync.Mutex
	nextId uint64
	subs   map[org.Id]map[uint64]chan Event
	buffer uint
}

func NewHub(buffer uint) *Hub {
	return &Hub{
		subs:   make(map[org.Id]map[uint64]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers interest in changes within the given org.
func (h *Hub) Subscribe(orgId org.Id) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextId++
	ch := make(chan Event, h.buffer)
	if h.subs[orgId] == nil {
		h.subs[orgId] = make(map[uint64]chan Event)
	}
	h.subs[orgId][h.nextId] = ch
	return &Subscription{
		C:   ch,
		hub: h,
		org: orgId,
		id:  h.nextId,
	}
}

// Publish delivers the event to every current subscriber of the event's
// org. Delivery is non-blocking: a subscriber whose buffer is full misses
// the event rather than stalling the publisher.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[event.Org] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) unsubscribe(orgId org.Id, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	orgSubs := h.subs[orgId]
	if ch, ok := orgSubs[id]; ok {
		delete(orgSubs, id)
		close(ch)
	}
	if len(orgSubs) == 0 {
		delete(h.subs, orgId)
	}
}
