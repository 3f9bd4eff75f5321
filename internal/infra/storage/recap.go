package storage

import (
	"context"
	"fmt"
)

// Impact tags for recap entries.
const (
	ImpactPositive = "POSITIVE"
	ImpactNegative = "NEGATIVE"
	ImpactNeutral  = "NEUTRAL"
)

// Reconstructor turns a run's stored events back into something a player can read.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new recap builder.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// RecapEvent is a simplified event for the run recap screen.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	Turn      int    `json:"turn"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// GenerateRecap lists what happened in a run, oldest first, starting at sinceTurn.
func (r *Reconstructor) GenerateRecap(ctx context.Context, runID string, sinceTurn int) ([]RecapEvent, error) {
	allEvents, err := r.eventRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run events: %w", err)
	}

	recap := make([]RecapEvent, 0, len(allEvents))
	for _, e := range allEvents {
		if e.Turn < sinceTurn {
			continue
		}
		recap = append(recap, RecapEvent{
			Timestamp: e.Timestamp.Format("15:04:05"),
			Turn:      e.Turn,
			EventType: e.EventType,
			Summary:   summarizeEvent(e),
			Impact:    determineImpact(e),
		})
	}
	return recap, nil
}

// summarizeEvent creates a human-readable summary.
func summarizeEvent(e GameEvent) string {
	switch e.EventType {
	case "RUN_STARTED":
		return "A new run began."
	case "REACTION_PERFORMED":
		if line, ok := e.Payload["line"].(string); ok && line != "" {
			return line
		}
		return fmt.Sprintf("Ran %s.", text(e.Payload, "reaction", "a reaction"))
	case "TURN_ADVANCED":
		return fmt.Sprintf("Turn %d began with %d ATP (flags %d/3).",
			number(e.Payload, "turn"), number(e.Payload, "atp"), number(e.Payload, "failure_flags"))
	case "CONDITION_DRAWN":
		return fmt.Sprintf("Event card: %s.", text(e.Payload, "title", "unknown"))
	case "ROOM_SELECTED":
		return fmt.Sprintf("Moved to %s.", text(e.Payload, "room", "another room"))
	case "ROOM_REFUSED":
		return fmt.Sprintf("Could not enter %s yet.", text(e.Payload, "room", "that room"))
	case "RUN_ENDED":
		if text(e.Payload, "status", "") == "ESCAPED" {
			return "Escaped the cell."
		}
		return "The cell collapsed."
	case "RUN_RESET":
		return "The run was abandoned."
	default:
		return "Something happened in the cell."
	}
}

// determineImpact classifies the event impact.
func determineImpact(e GameEvent) string {
	switch e.EventType {
	case "REACTION_PERFORMED":
		if applied, ok := e.Payload["applied"].(bool); ok && applied {
			return ImpactPositive
		}
		return ImpactNegative
	case "RUN_ENDED":
		if text(e.Payload, "status", "") == "ESCAPED" {
			return ImpactPositive
		}
		return ImpactNegative
	case "ROOM_REFUSED", "RUN_RESET":
		return ImpactNegative
	case "CONDITION_DRAWN":
		switch text(e.Payload, "condition_id", "") {
		case "hypoxia", "cyanide", "thiamine":
			return ImpactNegative
		case "exercise":
			return ImpactPositive
		}
		return ImpactNeutral
	default:
		return ImpactNeutral
	}
}
