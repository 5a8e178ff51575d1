package htlc

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEventBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe(1)
	b := bus.Subscribe(1)

	id := uuid.New()
	bus.Publish(Event{Type: SwapInitiated, SwapID: id})

	select {
	case e := <-a:
		if e.SwapID != id || e.Type != SwapInitiated {
			t.Fatalf("unexpected event on a: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on subscriber a")
	}
	select {
	case e := <-b:
		if e.SwapID != id {
			t.Fatalf("unexpected event on b: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on subscriber b")
	}
}

func TestEventBusDropsOnFullBuffer(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(1)

	bus.Publish(Event{Type: SwapInitiated})
	bus.Publish(Event{Type: HTLCFunded}) // buffer full, should be dropped, not block

	select {
	case e := <-ch:
		if e.Type != SwapInitiated {
			t.Fatalf("expected first event to survive, got %v", e.Type)
		}
	default:
		t.Fatal("expected the first published event to be buffered")
	}

	select {
	case e := <-ch:
		t.Fatalf("expected second event to have been dropped, got %v", e.Type)
	default:
	}
}
