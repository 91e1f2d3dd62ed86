package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_QueueAndDrain(t *testing.T) {
	h := NewHub(3)

	h.Queue("c1", Success("Note added successfully!"))
	h.Queue("c2", Error("Failed to add note."))

	toasts := h.Drain("c1")
	require.Len(t, toasts, 1)
	assert.Equal(t, SeveritySuccess, toasts[0].Severity)
	assert.Equal(t, "Note added successfully!", toasts[0].Message)
	assert.NotEmpty(t, toasts[0].ID)
	assert.False(t, toasts[0].CreatedAt.IsZero())

	assert.Empty(t, h.Drain("c1"))
	assert.Len(t, h.Drain("c2"), 1)
}

func TestHub_DropsOldest(t *testing.T) {
	h := NewHub(3)
	for i := range 5 {
		h.Queue("c1", Success(fmt.Sprintf("toast %d", i)))
	}

	toasts := h.Drain("c1")
	require.Len(t, toasts, 3)
	assert.Equal(t, "toast 2", toasts[0].Message)
	assert.Equal(t, "toast 4", toasts[2].Message)
}

func TestHub_Expire(t *testing.T) {
	h := NewHub(3)

	old := Success("toast 1")
	old.CreatedAt = time.Now().Add(-2 * time.Hour)
	h.Queue("gone", old)

	// a fresh toast keeps the whole queue alive
	h.Queue("back", old)
	h.Queue("back", Success("toast 2"))

	assert.Equal(t, 2, h.PendingClients())
	assert.Equal(t, 1, h.Expire(time.Hour))
	assert.Equal(t, 1, h.PendingClients())
	assert.Empty(t, h.Drain("gone"))
	assert.Len(t, h.Drain("back"), 2)
	assert.Zero(t, h.Expire(time.Hour))
}

func TestHub_PublishToSubscriber(t *testing.T) {
	h := NewHub(5)
	ch, cancel := h.Subscribe("c1")
	defer cancel()

	h.Publish("c1", Success("Added Portal to library!"))

	select {
	case toast := <-ch:
		assert.Equal(t, "Added Portal to library!", toast.Message)
	default:
		t.Fatal("expected a live toast")
	}
	assert.Empty(t, h.Drain("c1"))
}

func TestHub_PublishFallsBackToQueue(t *testing.T) {
	h := NewHub(5)

	h.Publish("c1", Error("Failed to fetch users"))
	assert.Len(t, h.Drain("c1"), 1)

	// a subscriber of another client does not receive it
	_, cancel := h.Subscribe("c2")
	defer cancel()
	h.Publish("c1", Error("Failed to delete user"))
	assert.Len(t, h.Drain("c1"), 1)
}

func TestHub_PublishFullSubscriber(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe("c1")
	defer cancel()

	h.Publish("c1", Success("first"))
	h.Publish("c1", Success("second"))

	assert.Equal(t, "first", (<-ch).Message)
	queued := h.Drain("c1")
	require.Len(t, queued, 1)
	assert.Equal(t, "second", queued[0].Message)
}

func TestHub_Cancel(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe("c1")
	assert.Equal(t, 1, h.Subscribers("c1"))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers("c1"))

	h.Publish("c1", Success("after cancel"))
	assert.Len(t, h.Drain("c1"), 1)
}

func TestHub_EmptyClientIgnored(t *testing.T) {
	h := NewHub(5)
	h.Queue("", Success("x"))
	h.Publish("", Success("x"))
	assert.Empty(t, h.Drain(""))
}
