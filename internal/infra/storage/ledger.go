package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/events"
)

// Ledger is the durable side of the event log: every engine event is stored,
// and the run summary it implies is upserted alongside it.
// It implements events.EventPersister.
type Ledger struct {
	db     *sql.DB
	pooled bool
	Events EventRepository
	Runs   RunRepository

	mu      sync.Mutex
	summary map[string]RunSummary
	timeout time.Duration
}

// Open picks the backend from the DSN: postgres:// URLs go to Postgres,
// anything else is handed to SQLite.
func Open(ctx context.Context, dsn string) (*Ledger, error) {
	if IsPostgresDSN(dsn) {
		db, err := InitPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		l := NewLedger(db, NewPostgresEventRepository(db), NewPostgresRunRepository(db))
		l.pooled = true
		return l, nil
	}

	db, err := InitSQLite(dsn)
	if err != nil {
		return nil, err
	}
	return NewLedger(db, NewSQLiteEventRepository(db), NewSQLiteRunRepository(db)), nil
}

// NewLedger wires repositories together. db may be nil when the repositories
// are not SQL-backed.
func NewLedger(db *sql.DB, eventRepo EventRepository, runRepo RunRepository) *Ledger {
	return &Ledger{
		db:      db,
		Events:  eventRepo,
		Runs:    runRepo,
		summary: make(map[string]RunSummary),
		timeout: 2 * time.Second,
	}
}

// SetMaxOpenConns sizes the connection pool of a Postgres ledger. SQLite keeps
// its single connection.
func (l *Ledger) SetMaxOpenConns(n int) {
	if l.db == nil || n <= 0 || !l.pooled {
		return
	}
	l.db.SetMaxOpenConns(n)
	l.db.SetMaxIdleConns(max(n/2, 1))
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Append stores one engine event and refreshes the run summary.
func (l *Ledger) Append(event events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	var payloadMap map[string]any
	dec := json.NewDecoder(bytes.NewReader(payloadBytes))
	dec.UseNumber() // seeds do not fit in a float64
	if err := dec.Decode(&payloadMap); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	storageEvent := GameEvent{
		ID:        event.ID,
		RunID:     event.RunID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Turn:      event.Turn,
		Payload:   payloadMap,
	}
	if err := l.Events.Append(ctx, storageEvent); err != nil {
		return err
	}

	run, changed := l.fold(storageEvent)
	if !changed {
		return nil
	}
	return l.Runs.Upsert(ctx, run)
}

// fold applies an event to the cached summary of its run.
func (l *Ledger) fold(e GameEvent) (RunSummary, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	run, ok := l.summary[e.RunID]
	if !ok {
		run = RunSummary{
			RunID:     e.RunID,
			Status:    "IN_PROGRESS",
			Turn:      e.Turn,
			StartedAt: e.Timestamp,
		}
	}

	switch events.EventType(e.EventType) {
	case events.EventTypeRunStarted:
		run.Seed = number64(e.Payload, "seed")
	case events.EventTypeReactionPerformed:
		run.ATP = number(e.Payload, "atp")
	case events.EventTypeTurnAdvanced:
		run.Turn = number(e.Payload, "turn")
		run.ATP = number(e.Payload, "atp")
		run.FailureFlags = number(e.Payload, "failure_flags")
		run.Status = text(e.Payload, "status", run.Status)
	case events.EventTypeRunEnded:
		run.Turn = number(e.Payload, "turn")
		run.ATP = number(e.Payload, "atp")
		run.Status = text(e.Payload, "status", run.Status)
	case events.EventTypeRunReset:
		if run.Status == "IN_PROGRESS" {
			run.Status = "ABANDONED"
		}
	default:
		if ok {
			return run, false
		}
	}

	run.UpdatedAt = e.Timestamp
	l.summary[e.RunID] = run
	return run, true
}

func number(payload map[string]any, key string) int {
	return int(number64(payload, key))
}

func number64(payload map[string]any, key string) int64 {
	switch v := payload[key].(type) {
	case json.Number:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func text(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

var _ events.EventPersister = (*Ledger)(nil)
