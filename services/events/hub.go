package events

import (
	"sync"
	"time"

	"safar/models"

	"go.uber.org/zap"
)

// Event is a realtime message observed by this service, wrapped with receipt
// metadata for the admin surface.
type Event struct {
	Type       models.MessageType `json:"type"`
	Payload    any                `json:"payload"`
	ReceivedAt time.Time          `json:"receivedAt"`
}

const subscriberBuffer = 32

// Hub fans inbound realtime events out to in-process subscribers and keeps a
// bounded ring of the most recent events. Publishing never blocks: a slow
// subscriber loses its oldest undelivered event.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	recent  []Event
	keep    int
	logger  *zap.Logger
	dropped int
}

// NewHub returns a hub retaining the last keep events (defaults to 100 when
// keep is not positive).
func NewHub(logger *zap.Logger, keep int) *Hub {
	if keep <= 0 {
		keep = 100
	}
	return &Hub{
		subs:   make(map[int]chan Event),
		keep:   keep,
		logger: logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish records the event and delivers it to every subscriber.
func (h *Hub) Publish(t models.MessageType, payload any) {
	ev := Event{Type: t, Payload: payload, ReceivedAt: time.Now()}

	h.mu.Lock()
	h.recent = append(h.recent, ev)
	if len(h.recent) > h.keep {
		h.recent = h.recent[len(h.recent)-h.keep:]
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Drop the oldest undelivered event to make room.
			select {
			case <-ch:
				h.dropped++
				h.logger.Debug("events: dropped event for slow subscriber",
					zap.Int("totalDropped", h.dropped))
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
	h.mu.Unlock()
}

// Recent returns up to n of the most recent events, newest last.
func (h *Hub) Recent(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.recent) {
		n = len(h.recent)
	}
	out := make([]Event, n)
	copy(out, h.recent[len(h.recent)-n:])
	return out
}
