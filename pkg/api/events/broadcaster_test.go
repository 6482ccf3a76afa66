package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(4)
	defer b.Unsubscribe(ch)

	b.BroadcastMemorySelected("p1", "k1", 3)

	select {
	case event := <-ch:
		assert.Equal(t, "memory.selected", event.Type)
		assert.False(t, event.Timestamp.IsZero())
		payload, ok := event.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "p1", payload["profile_id"])
		assert.Equal(t, 3, payload["selected"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBroadcaster_DropsOnOverflow(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)

	// The second event must be dropped, not block.
	done := make(chan struct{})
	go func() {
		b.BroadcastFeedbackApplied("p1", "k1", "c1", 1)
		b.BroadcastFeedbackApplied("p1", "k1", "c2", 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
	assert.Len(t, ch, 1)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(1)
	b.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe must be safe.
	b.Unsubscribe(ch)
}
