package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"hy2core/pkg/types"
)

// Hub fans callbacks out to live subscribers (the /v1/events stream).
// Delivery never blocks the engine: a subscriber whose buffer is full misses
// messages and its Dropped count grows.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	now    func() time.Time
}

// NewHub creates a hub whose subscribers buffer up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer, now: time.Now}
}

// Subscription is one consumer of the hub.
type Subscription struct {
	C       <-chan types.StreamMessage
	ch      chan types.StreamMessage
	hub     *Hub
	once    sync.Once
	dropped atomic.Uint64
}

// Subscribe registers a new subscriber. Call Close when done.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan types.StreamMessage, h.buffer)
	s := &Subscription{C: ch, ch: ch, hub: h}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Close unregisters the subscriber and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

// Dropped is the number of messages lost to a full buffer.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Log(level, msg string) {
	h.publish(types.StreamMessage{Kind: types.StreamKindLog, Level: level, Message: msg})
}

func (h *Hub) OnEvent(name, data string) {
	h.publish(types.StreamMessage{Kind: types.StreamKindEvent, Name: name, Data: data})
}

func (h *Hub) publish(m types.StreamMessage) {
	m.ID = uuid.NewString()
	m.Time = h.now().UTC()
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- m:
		default:
			s.dropped.Add(1)
		}
	}
}
