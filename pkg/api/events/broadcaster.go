// Package events provides an in-process event broadcaster feeding the
// websocket stream.
package events

import (
	"sync"
	"time"
)

// Event is the canonical event payload broadcast to websocket subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast broadcasts a generic event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop on overflow to keep broadcasters non-blocking.
		}
	}
}

// BroadcastMemorySelected emits a selection event.
func (b *Broadcaster) BroadcastMemorySelected(profileID, kernelID string, selected int) {
	b.Broadcast(Event{
		Type: "memory.selected",
		Payload: map[string]any{
			"profile_id": profileID,
			"kernel_id":  kernelID,
			"selected":   selected,
		},
	})
}

// BroadcastFeedbackApplied emits a feedback event.
func (b *Broadcaster) BroadcastFeedbackApplied(profileID, kernelID, contextID string, rewards int) {
	b.Broadcast(Event{
		Type: "memory.feedback",
		Payload: map[string]any{
			"profile_id": profileID,
			"kernel_id":  kernelID,
			"context_id": contextID,
			"rewards":    rewards,
		},
	})
}

// BroadcastChunksStored emits a chunk-registry event.
func (b *Broadcaster) BroadcastChunksStored(profileID string, count int) {
	b.Broadcast(Event{
		Type: "memory.stored",
		Payload: map[string]any{
			"profile_id": profileID,
			"count":      count,
		},
	})
}
