package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/events"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "share.updated", Data: map[string]string{"note_id": "abc"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: share.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"note_id":"abc"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func drain(ch chan []byte) (resets, trees int) {
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "event: "+TypeTreeUpdated):
				trees++
			case strings.Contains(s, "event: "+TypeCacheReset):
				resets++
			}
		default:
			return resets, trees
		}
	}
}

func TestPublishEntityEvent_TreeThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Only the first of two quick events is followed by tree.updated.
	b.PublishEntityEvent(events.Event{Kind: events.EntityChanged, EntityName: "notes", EntityID: "a"})
	b.PublishEntityEvent(events.Event{Kind: events.EntityDeleted, EntityName: "branches", EntityID: "b"})

	time.Sleep(50 * time.Millisecond)
	resets, trees := drain(ch)
	if resets != 2 {
		t.Errorf("cache.reset events = %d, want 2", resets)
	}
	if trees != 1 {
		t.Errorf("tree.updated events = %d, want 1 (throttled)", trees)
	}
}

func TestAttach_ForwardsBusEvents(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	bus := events.NewBus()
	detach := b.Attach(bus)
	bus.Publish(events.Event{Kind: events.EntityChangeSynced})

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), `"kind":"change-synced"`) {
			t.Errorf("unexpected payload %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for forwarded event")
	}

	detach()
	time.Sleep(20 * time.Millisecond)
	drain(ch)
	bus.Publish(events.Event{Kind: events.EntityChanged})
	time.Sleep(20 * time.Millisecond)
	if resets, _ := drain(ch); resets != 0 {
		t.Errorf("events after detach = %d", resets)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishEntityEvent(events.Event{Kind: events.EntityChanged, EntityName: "attributes", EntityID: "x"})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: cache.reset") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeTreeUpdated, Data: map[string]string{}})
	b.PublishEntityEvent(events.Event{Kind: events.EntityChanged})
}
