package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athletichub/internal/models"
)

type mockPublisher struct {
	published chan models.EventNotification
	err       error
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{published: make(chan models.EventNotification, 1)}
}

func (m *mockPublisher) PublishEventCreated(notification models.EventNotification) error {
	if m.err != nil {
		return m.err
	}
	m.published <- notification
	return nil
}

func sampleEvent() models.Event {
	return models.Event{
		ID:          "event-1",
		Name:        "City Marathon",
		Category:    "running",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Riverside Park",
		CreatorName: "Jamie Organizer",
	}
}

func TestDispatchPublishesNotification(t *testing.T) {
	publisher := newMockPublisher()
	d := NewDispatcher(publisher, nil)

	subscribers := []string{"a@example.com", "b@example.com"}
	d.Dispatch(subscribers, sampleEvent())

	select {
	case notification := <-publisher.published:
		assert.Equal(t, "event-1", notification.EventID)
		assert.Equal(t, "City Marathon", notification.Name)
		require.Len(t, notification.Subscribers, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a notification to be published")
	}
}

func TestDispatchSkipsEmptySubscriberList(t *testing.T) {
	publisher := newMockPublisher()
	d := NewDispatcher(publisher, nil)

	d.Dispatch(nil, sampleEvent())

	select {
	case <-publisher.published:
		t.Fatal("Expected no notification for an empty subscriber list")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchWithNilPublisher(t *testing.T) {
	d := NewDispatcher(nil, nil)

	// Must not panic when the broker is not configured.
	d.Dispatch([]string{"a@example.com"}, sampleEvent())
}

func TestDispatchSwallowsPublishFailure(t *testing.T) {
	publisher := newMockPublisher()
	publisher.err = errors.New("broker unavailable")
	d := NewDispatcher(publisher, nil)

	// Dispatch never surfaces broker errors to the caller.
	d.Dispatch([]string{"a@example.com"}, sampleEvent())
	time.Sleep(50 * time.Millisecond)
}
