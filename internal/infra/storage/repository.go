// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no summary exists for a run id.
var ErrRunNotFound = errors.New("run not found")

// GameEvent mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type GameEvent struct {
	ID        string         `json:"id" db:"id"`
	RunID     string         `json:"run_id" db:"run_id"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	EventType string         `json:"event_type" db:"event_type"`
	Turn      int            `json:"turn" db:"turn"`
	Payload   map[string]any `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByRunID retrieves all events for a run in the order they happened.
	GetByRunID(ctx context.Context, runID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type within a run.
	GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error)
}

// RunSummary is the latest known outcome of a run, kept for quick listing.
type RunSummary struct {
	RunID        string    `json:"run_id" db:"run_id"`
	Seed         int64     `json:"seed" db:"seed"`
	Status       string    `json:"status" db:"status"`
	Turn         int       `json:"turn" db:"turn"`
	ATP          int       `json:"atp" db:"atp"`
	FailureFlags int       `json:"failure_flags" db:"failure_flags"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RunRepository defines the interface for run summaries.
type RunRepository interface {
	// Upsert updates or inserts a run summary.
	Upsert(ctx context.Context, run RunSummary) error

	// GetByRunID retrieves one summary, or ErrRunNotFound.
	GetByRunID(ctx context.Context, runID string) (*RunSummary, error)

	// ListRecent returns the most recently updated runs first.
	ListRecent(ctx context.Context, limit int) ([]RunSummary, error)
}
