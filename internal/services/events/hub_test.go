package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe("u1")
	defer unsubscribe()

	hub.Publish("u1", Change{Kind: KindTasks, ID: "t1", Action: "created"})

	select {
	case c := <-ch:
		assert.Equal(t, KindTasks, c.Kind)
		assert.Equal(t, "t1", c.ID)
		assert.False(t, c.Timestamp.IsZero())
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected change to be delivered")
	}
}

func TestHub_IsolatedByIdentity(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe("u1")
	defer unsubscribe()

	hub.Publish("u2", Change{Kind: KindProfile})

	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v", c)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe("u1")
	require.Equal(t, 1, hub.Subscribers("u1"))

	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers("u1"))

	hub.Publish("u1", Change{Kind: KindTasks})
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()

	_, unsubscribe := hub.Subscribe("u1")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for range bufferSize * 3 {
			hub.Publish("u1", Change{Kind: KindSubscriptions})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
