package battle

import (
	"sync"
	"time"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// EventType represents the type of battle event.
type EventType int

const (
	// EventMoveCompleted is emitted when a unit finishes a movement step.
	EventMoveCompleted EventType = iota
	// EventTurnChanged is emitted when the turn passes to another side.
	EventTurnChanged
	// EventUnitDied is emitted when a unit leaves the field.
	EventUnitDied
	// EventUnitDetected is emitted once when a hidden hostile is newly sensed.
	EventUnitDetected
	// EventVisibilityRefreshed is emitted after every full fog refresh.
	EventVisibilityRefreshed
)

// String returns a human-readable representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventMoveCompleted:
		return "MoveCompleted"
	case EventTurnChanged:
		return "TurnChanged"
	case EventUnitDied:
		return "UnitDied"
	case EventUnitDetected:
		return "UnitDetected"
	case EventVisibilityRefreshed:
		return "VisibilityRefreshed"
	default:
		return "Unknown"
	}
}

// Event represents a battle event.
type Event struct {
	Type      EventType      `json:"type"`
	Unit      *models.Unit   `json:"unit,omitempty"`
	From      hex.Axial      `json:"from"`
	To        hex.Axial      `json:"to"`
	Side      models.Faction `json:"side"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventBus manages event subscriptions and delivery.
type EventBus interface {
	// Subscribe registers a handler for one event type.
	Subscribe(t EventType, handler func(Event))

	// Publish sends an event to subscribed handlers.
	Publish(event Event)
}

// SimpleEventBus delivers events synchronously, in subscription order, on the
// publishing goroutine. Battle logic runs on a single thread, so handlers see
// state exactly as it was when the event was raised.
type SimpleEventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]func(Event)
}

// NewSimpleEventBus creates an empty event bus.
func NewSimpleEventBus() *SimpleEventBus {
	return &SimpleEventBus{
		handlers: make(map[EventType][]func(Event)),
	}
}

// Subscribe registers a handler for one event type.
func (bus *SimpleEventBus) Subscribe(t EventType, handler func(Event)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[t] = append(bus.handlers[t], handler)
}

// Publish sends an event to every handler subscribed to its type.
func (bus *SimpleEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.RLock()
	handlers := append([]func(Event){}, bus.handlers[event.Type]...)
	bus.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// NullEventBus is an event bus that does nothing (for testing or when events not needed).
type NullEventBus struct{}

// NewNullEventBus creates a new null event bus.
func NewNullEventBus() *NullEventBus {
	return &NullEventBus{}
}

// Subscribe does nothing.
func (bus *NullEventBus) Subscribe(t EventType, handler func(Event)) {}

// Publish does nothing.
func (bus *NullEventBus) Publish(event Event) {}
