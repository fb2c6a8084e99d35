package notify

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is a lifecycle transition notification
type Event struct {
	Type string      `json:"type"` // e.g. file.uploaded, file.trashed, file.archived
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`
}

// Subscriber is one connected notification consumer
type Subscriber struct {
	ID      string
	Channel chan Event
}

// Hub fans lifecycle events out to all subscribers. Delivery is
// fire-and-forget, at most once: a subscriber with a full buffer
// misses the event rather than blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]bool
}

// NewHub creates a Hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
	}
}

// Subscribe registers a consumer
func (h *Hub) Subscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = true
}

// Unsubscribe removes a consumer and closes its channel
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.Channel)
	}
}

// Publish broadcasts a lifecycle event to all subscribers
func (h *Hub) Publish(eventType string, payload interface{}) {
	event := Event{
		Type: eventType,
		Time: time.Now(),
		Data: payload,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.Channel <- event:
		default:
			// subscriber buffer full, drop
		}
	}
}

// SubscriberCount returns the number of connected consumers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// FormatSSE renders the event as an SSE frame
func (e Event) FormatSSE() string {
	data, _ := json.Marshal(struct {
		Time time.Time   `json:"time"`
		Data interface{} `json:"data"`
	}{e.Time, e.Data})
	return "event: " + e.Type + "\ndata: " + string(data) + "\n\n"
}
