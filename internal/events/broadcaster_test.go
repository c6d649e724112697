package events

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/relieflabs/go-drms/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	b.Unsubscribe(id)
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	// Channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed")
		}
	default:
		t.Error("channel should be closed and readable")
	}
}

func TestBroadcaster_Publish(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	ev := Event{
		Kind:       KindAssessment,
		RecordID:   "as_1",
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		Status:     models.StatusVerified,
		At:         time.Now(),
	}
	b.Publish(ev)

	select {
	case received := <-ch:
		if received.RecordID != ev.RecordID {
			t.Errorf("expected record %s, got %s", ev.RecordID, received.RecordID)
		}
		if received.Status != models.StatusVerified {
			t.Errorf("expected VERIFIED, got %s", received.Status)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestBroadcaster_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	// Concurrently subscribe and unsubscribe
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := b.Subscribe()
			time.Sleep(time.Millisecond)
			b.Unsubscribe(id)
		}()
	}

	wg.Wait()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after cleanup, got %d", b.SubscriberCount())
	}
}

func TestBroadcaster_ConcurrentPublish(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	numSubscribers := 10
	ids := make([]uint64, numSubscribers)
	for i := 0; i < numSubscribers; i++ {
		ids[i], _ = b.Subscribe()
	}

	numEvents := 50
	for i := 0; i < numEvents; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Publish(Event{Kind: KindResponse, RecordID: "resp_1", Status: models.StatusSubmitted})
		}(i)
	}

	wg.Wait()

	for i := 0; i < numSubscribers; i++ {
		b.Unsubscribe(ids[i])
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()

	var channels []chan Event
	for i := 0; i < 5; i++ {
		_, ch := b.Subscribe()
		channels = append(channels, ch)
	}

	if b.SubscriberCount() != 5 {
		t.Errorf("expected 5 subscribers, got %d", b.SubscriberCount())
	}

	b.Close()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", b.SubscriberCount())
	}

	// All channels should be closed
	for i, ch := range channels {
		select {
		case _, ok := <-ch:
			if ok {
				t.Errorf("channel %d should be closed", i)
			}
		default:
			t.Errorf("channel %d should be closed and readable", i)
		}
	}
}

func TestBroadcaster_SlowSubscriber(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// Fill the buffer (64) + 1 more
	for i := 0; i < 65; i++ {
		b.Publish(Event{Kind: KindAssessment, RecordID: "as_1", Status: models.StatusSubmitted})
	}

	// Should not block - the 65th event is dropped
	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:

	if count != 64 {
		t.Errorf("expected 64 buffered events, got %d", count)
	}
}
