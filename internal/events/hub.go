package events

import (
	"sync"
)

type subscription struct {
	ch     chan Event
	filter map[Type]bool
}

func (s subscription) wants(t Type) bool {
	return len(s.filter) == 0 || s.filter[t]
}

// Hub fans events out to subscribers and sinks
type Hub struct {
	subscribers map[<-chan Event]subscription
	sinks       []Emitter
	mu          sync.RWMutex
	closed      bool
}

// NewHub creates a hub forwarding every event to sinks as well.
func NewHub(sinks ...Emitter) *Hub {
	return &Hub{
		subscribers: make(map[<-chan Event]subscription),
		sinks:       sinks,
	}
}

// AddSink registers another external sink
func (h *Hub) AddSink(sink Emitter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, sink)
}

// Subscribe creates a subscription. With no types every event is delivered.
func (h *Hub) Subscribe(types ...Type) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)
	if h.closed {
		close(ch)
		return ch
	}

	sub := subscription{ch: ch}
	if len(types) > 0 {
		sub.filter = make(map[Type]bool, len(types))
		for _, t := range types {
			sub.filter[t] = true
		}
	}
	h.subscribers[ch] = sub
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(sub.ch)
	}
}

// Emit delivers event to matching subscribers and all sinks. Sinks run
// after the lock is released.
func (h *Hub) Emit(event Event) {
	h.mu.RLock()
	for _, sub := range h.subscribers {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Skip if channel is full
		}
	}
	sinks := make([]Emitter, len(h.sinks))
	copy(sinks, h.sinks)
	h.mu.RUnlock()

	for _, sink := range sinks {
		sink.Emit(event)
	}
}

// Close closes all subscriptions
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, sub := range h.subscribers {
		close(sub.ch)
		delete(h.subscribers, key)
	}
	h.closed = true
}
