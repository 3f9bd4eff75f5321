package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, run_id, seq, timestamp, event_type, turn, payload)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE run_id = ?), ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.RunID, event.RunID, event.Timestamp, event.EventType,
		event.Turn, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...any) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(&e.ID, &e.RunID, &e.Timestamp, &e.EventType, &e.Turn, &payloadStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByRunID(ctx context.Context, runID string) ([]GameEvent, error) {
	query := `SELECT id, run_id, timestamp, event_type, turn, payload FROM events WHERE run_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error) {
	query := `SELECT id, run_id, timestamp, event_type, turn, payload FROM events WHERE run_id = ? AND event_type = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID, eventType)
}

// ---------------------------------------------------------
// SQLiteRunRepository
// ---------------------------------------------------------

type SQLiteRunRepository struct {
	db *sql.DB
}

func NewSQLiteRunRepository(db *sql.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) Upsert(ctx context.Context, run RunSummary) error {
	query := `
		INSERT INTO runs (run_id, seed, status, turn, atp, failure_flags, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status=excluded.status,
			turn=excluded.turn,
			atp=excluded.atp,
			failure_flags=excluded.failure_flags,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		run.RunID, run.Seed, run.Status, run.Turn, run.ATP, run.FailureFlags, run.StartedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	return nil
}

const runColumns = `run_id, seed, status, turn, atp, failure_flags, started_at, updated_at`

func scanRun(row interface{ Scan(...any) error }) (RunSummary, error) {
	var run RunSummary
	err := row.Scan(&run.RunID, &run.Seed, &run.Status, &run.Turn, &run.ATP, &run.FailureFlags, &run.StartedAt, &run.UpdatedAt)
	return run, err
}

func (r *SQLiteRunRepository) GetByRunID(ctx context.Context, runID string) (*RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = ?`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (r *SQLiteRunRepository) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY updated_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

var (
	_ EventRepository = (*SQLiteEventRepository)(nil)
	_ RunRepository   = (*SQLiteRunRepository)(nil)
)
