package events

import (
	"testing"

	"safar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishAndSubscribe(t *testing.T) {
	h := NewHub(zap.NewNop(), 10)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(models.TypeBookingUpdate, models.BookingUpdate{BookingID: "b1", Status: "confirmed"})

	ev := <-ch
	assert.Equal(t, models.TypeBookingUpdate, ev.Type)
	update, ok := ev.Payload.(models.BookingUpdate)
	require.True(t, ok)
	assert.Equal(t, "b1", update.BookingID)
}

func TestRecentKeepsBoundedWindow(t *testing.T) {
	h := NewHub(zap.NewNop(), 3)
	for i := 0; i < 5; i++ {
		h.Publish(models.TypeNewNotification, models.Notification{ID: string(rune('a' + i))})
	}

	recent := h.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Payload.(models.Notification).ID)
	assert.Equal(t, "e", recent[2].Payload.(models.Notification).ID)

	assert.Len(t, h.Recent(2), 2)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(zap.NewNop(), 10)
	_, cancel := h.Subscribe()
	defer cancel()

	// Fill way past the subscriber buffer; Publish must never block.
	for i := 0; i < subscriberBuffer*3; i++ {
		h.Publish(models.TypeNewMessage, models.ChatMessage{MessageID: "m"})
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop(), 10)
	ch, cancel := h.Subscribe()
	cancel()
	// Cancelling twice is safe.
	cancel()

	_, open := <-ch
	assert.False(t, open)

	h.Publish(models.TypeNewNotification, models.Notification{ID: "n1"})
}
