package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe("acme")
	defer sub.Close()

	event := Event{
		Org:      "acme",
		RecordID: "r1",
		Kind:     "project",
		Op:       "updated",
		Version:  "1-2",
	}
	hub.Publish(event)
	got := <-sub.C
	assert.EqualValues(t, event, got)
}

func TestHub_PublishIsScopedToOrg(t *testing.T) {
	hub := NewHub(4)
	acme := hub.Subscribe("acme")
	defer acme.Close()
	globex := hub.Subscribe("globex")
	defer globex.Close()

	hub.Publish(Event{Org: "acme", RecordID: "r1", Op: "updated"})

	assert.Len(t, acme.C, 1)
	assert.Len(t, globex.C, 0)
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe("acme")
	defer sub.Close()

	hub.Publish(Event{Org: "acme", RecordID: "r1", Op: "updated"})
	// buffer is full; this one must not block, and is dropped
	hub.Publish(Event{Org: "acme", RecordID: "r2", Op: "updated"})

	assert.Len(t, sub.C, 1)
	got := <-sub.C
	assert.EqualValues(t, "r1", string(got.RecordID))
}

func TestSubscription_Close(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe("acme")
	sub.Close()

	// channel is closed
	_, open := <-sub.C
	assert.False(t, open)

	// publishing after close must not panic
	assert.NotPanics(t, func() {
		hub.Publish(Event{Org: "acme", RecordID: "r1", Op: "updated"})
	})

	// double close is fine
	assert.NotPanics(t, sub.Close)
}
