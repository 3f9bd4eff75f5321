// Package events provides the append-only record of everything a run went through.
// The player-facing journal is built from the same intents; this log is the audit trail.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeReactionPerformed EventType = "REACTION_PERFORMED"
	EventTypeTurnAdvanced      EventType = "TURN_ADVANCED"
	EventTypeConditionDrawn    EventType = "CONDITION_DRAWN"
	EventTypeRoomSelected      EventType = "ROOM_SELECTED"
	EventTypeRoomRefused       EventType = "ROOM_REFUSED"
	EventTypeRunStarted        EventType = "RUN_STARTED"
	EventTypeRunEnded          EventType = "RUN_ENDED"
	EventTypeRunReset          EventType = "RUN_RESET"
)

// ReactionPayload records one spent reaction.
type ReactionPayload struct {
	Reaction string `json:"reaction"`
	Applied  bool   `json:"applied"` // false when a precondition turned it into a no-op
	Line     string `json:"line"`
	ATP      int    `json:"atp"`
}

// TurnPayload records the outcome of a regulation pass.
type TurnPayload struct {
	Turn         int    `json:"turn"`
	Status       string `json:"status"`
	FailureFlags int    `json:"failure_flags"`
	ATP          int    `json:"atp"`
}

// ConditionPayload records the event card drawn at a turn advance.
type ConditionPayload struct {
	ConditionID string `json:"condition_id"`
	Title       string `json:"title"`
}

// RoomPayload records a room change request.
type RoomPayload struct {
	Room string `json:"room"`
}

// RunStartedPayload records the opening of a run.
type RunStartedPayload struct {
	Seed int64 `json:"seed"`
}

// RunEndedPayload records the final status of a run.
type RunEndedPayload struct {
	Status string `json:"status"`
	Turn   int    `json:"turn"`
	ATP    int    `json:"atp"`
}

// GameEvent represents an immutable record of an action in the game.
type GameEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Turn      int       `json:"turn"`
	Payload   any       `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// MaxEvents bounds the in-memory log. Past it, the oldest tenth is dropped.
const (
	MaxEvents  = 10000
	keepOnTrim = MaxEvents * 9 / 10
)

// EventLog is the in-memory append-only log of game events.
// With a persister, a reset run's events are released from memory once they
// are durably stored.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log and writes it through to the persister.
// The event is kept in memory even when the write-through fails.
func (el *EventLog) Append(event GameEvent) error {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	if len(el.events) > MaxEvents {
		n := copy(el.events, el.events[len(el.events)-keepOnTrim:])
		clear(el.events[n:])
		el.events = el.events[:n]
	}
	persister := el.persister
	el.mu.Unlock()

	if persister == nil {
		return nil
	}
	if err := persister.Append(event); err != nil {
		return fmt.Errorf("persist event %s: %w", event.ID, err)
	}
	if event.Type == EventTypeRunReset {
		el.release(event.RunID)
	}
	return nil
}

// release drops a finished run's events from memory.
func (el *EventLog) release(runID string) {
	el.mu.Lock()
	defer el.mu.Unlock()

	kept := el.events[:0]
	for _, e := range el.events {
		if e.RunID != runID {
			kept = append(kept, e)
		}
	}
	clear(el.events[len(kept):])
	el.events = kept
}

// GetByRun returns all events recorded for a run.
func (el *EventLog) GetByRun(runID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of a given type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history in append order.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len returns the number of recorded events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
