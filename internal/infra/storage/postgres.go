package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// IsPostgresDSN reports whether dsn points at a Postgres server rather than SQLite.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// InitPostgres opens a Postgres ledger and creates the runs and events tables.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := createSchemas(db, postgresSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

var postgresSchemas = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		turn INTEGER NOT NULL,
		atp INTEGER NOT NULL,
		failure_flags INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		event_type TEXT NOT NULL,
		turn INTEGER NOT NULL,
		payload JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at)`,
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, run_id, seq, timestamp, event_type, turn, payload)
		VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE run_id = $2), $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.RunID,
		event.Timestamp,
		event.EventType,
		event.Turn,
		payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetByRunID retrieves all events for a run.
func (r *PostgresEventRepository) GetByRunID(ctx context.Context, runID string) ([]GameEvent, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, turn, payload
		FROM events
		WHERE run_id = $1
		ORDER BY seq ASC
	`
	return r.queryEvents(ctx, query, runID)
}

// GetByEventType retrieves all events of a specific type.
func (r *PostgresEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, turn, payload
		FROM events
		WHERE run_id = $1 AND event_type = $2
		ORDER BY seq ASC
	`
	return r.queryEvents(ctx, query, runID, eventType)
}

// queryEvents is a helper to execute queries and scan results.
func (r *PostgresEventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadJSON []byte

		if err := rows.Scan(&e.ID, &e.RunID, &e.Timestamp, &e.EventType, &e.Turn, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PostgresRunRepository implements RunRepository using PostgreSQL.
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL run repository.
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// Upsert updates or inserts a run summary.
func (r *PostgresRunRepository) Upsert(ctx context.Context, run RunSummary) error {
	query := `
		INSERT INTO runs (run_id, seed, status, turn, atp, failure_flags, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			turn = EXCLUDED.turn,
			atp = EXCLUDED.atp,
			failure_flags = EXCLUDED.failure_flags,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		run.RunID, run.Seed, run.Status, run.Turn, run.ATP, run.FailureFlags, run.StartedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	return nil
}

// GetByRunID retrieves one summary, or ErrRunNotFound.
func (r *PostgresRunRepository) GetByRunID(ctx context.Context, runID string) (*RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = $1`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRecent returns the most recently updated runs first.
func (r *PostgresRunRepository) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY updated_at DESC LIMIT $1`
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
	_ EventRepository = (*PostgresEventRepository)(nil)
	_ RunRepository   = (*PostgresRunRepository)(nil)
)
