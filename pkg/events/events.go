// Package events fans node change notifications out to subscribers.
// Publishers never block: a subscriber whose buffer is full is dropped
// and its channel closed.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/chazu/figforge/pkg/logging"
	"github.com/chazu/figforge/pkg/shape"
)

// DefaultBuffer is the per-subscriber queue length used when none is set.
const DefaultBuffer = 64

// Type is the kind of change an Event reports.
type Type string

const (
	Created  Type = "created"
	Modified Type = "modified"
)

// Event is one node change.
type Event struct {
	ID      string        `json:"id"`
	Type    Type          `json:"type"`
	NodeID  string        `json:"nodeId"`
	Summary shape.Summary `json:"summary"`
	Time    time.Time     `json:"time"`
}

// Subscription receives events until it is closed or dropped.
type Subscription struct {
	C <-chan Event

	hub   *Hub
	ch    chan Event
	nodes map[string]bool // empty means every node
	once  sync.Once
}

// wants reports whether ev passes the subscription's node filter.
func (s *Subscription) wants(ev Event) bool {
	return len(s.nodes) == 0 || s.nodes[ev.NodeID]
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub is a publish/subscribe fan-out for node events.
type Hub struct {
	buffer int
	log    *log.Logger

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewHub returns a Hub whose subscribers queue up to buffer events.
func NewHub(buffer int, logger *log.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{buffer: buffer, log: logger, subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a subscriber for the given node ids, or for every
// node when none is given.
func (h *Hub) Subscribe(nodes ...string) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, hub: h, ch: ch, nodes: make(map[string]bool, len(nodes))}
	for _, id := range nodes {
		if id != "" {
			s.nodes[id] = true
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Debugf("subscriber added (%d active, filter %v)", n, nodes)
	return s
}

// Publish delivers ev to every interested subscriber. A missing ID or
// Time is filled in. The published event is returned.
func (h *Hub) Publish(ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if ev.NodeID == "" {
		ev.NodeID = ev.Summary.ID
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.wants(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			h.log.Warnf("dropping slow subscriber (buffer %d full)", h.buffer)
			h.dropLocked(s)
		}
	}
	return ev
}

// Notify publishes a change to the node described by sum.
func (h *Hub) Notify(typ Type, sum shape.Summary) Event {
	return h.Publish(Event{Type: typ, NodeID: sum.ID, Summary: sum})
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		h.dropLocked(s)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(s)
}

// dropLocked removes s and closes its channel. h.mu must be held.
func (h *Hub) dropLocked(s *Subscription) {
	delete(h.subs, s)
	s.once.Do(func() { close(s.ch) })
}
