package htlc

import (
	"sync"

	"github.com/google/uuid"
)

// EventType names one of the five lifecycle events a swap emits.
type EventType string

const (
	SwapInitiated  EventType = "swap_initiated"
	HTLCFunded     EventType = "htlc_funded"
	SecretRevealed EventType = "secret_revealed"
	SwapCompleted  EventType = "swap_completed"
	SwapRefunded   EventType = "swap_refunded"
)

// Event is published to every subscriber of an EventBus.
type Event struct {
	Type   EventType
	SwapID uuid.UUID
	Detail string
}

// EventBus fans out Events to subscribers over bounded channels, grounded
// loosely on the subscription shape of btclib's atomic-swap websocket
// notifier, expressed here as a plain Go channel fan-out rather than a
// websocket transport.
type EventBus struct {
	mu          sync.Mutex
	subscribers []chan Event
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a new listener with the given channel buffer size
// and returns the receive side. The channel is never closed by the bus;
// callers stop reading when they are done.
func (b *EventBus) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, buffer)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers e to every subscriber. A subscriber whose buffer is
// full has the event dropped rather than blocking the publisher, so one
// slow listener cannot stall the monitor loop.
func (b *EventBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
