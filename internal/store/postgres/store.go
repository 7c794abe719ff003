// Package postgres implements the agent log store on a pgx connection
// pool.
//
// Expected schema:
//
//	CREATE TABLE agent_logs (
//	    id           UUID PRIMARY KEY,
//	    session_id   UUID NULL,
//	    input        TEXT NOT NULL,
//	    raw_response TEXT NOT NULL,
//	    outcome      TEXT NOT NULL,
//	    success      BOOLEAN NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskpilot-backend/internal/store"
)

// PostgresStore implements store.Store using pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ store.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store over an established pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// SaveAgentLog inserts one log row.
func (s *PostgresStore) SaveAgentLog(ctx context.Context, entry store.AgentLog) error {
	query := `
		INSERT INTO agent_logs (id, session_id, input, raw_response, outcome, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query,
		entry.ID, entry.SessionID, entry.Input, entry.RawResponse, entry.Outcome, entry.Success, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert agent log: %w", err)
	}
	return nil
}

// ListAgentLogs returns the most recent log rows, newest first.
func (s *PostgresStore) ListAgentLogs(ctx context.Context, limit int) ([]store.AgentLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, session_id, input, raw_response, outcome, success, created_at
		FROM agent_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent logs: %w", err)
	}
	defer rows.Close()

	var logs []store.AgentLog
	for rows.Next() {
		var entry store.AgentLog
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.Input, &entry.RawResponse,
			&entry.Outcome, &entry.Success, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent log: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agent logs: %w", err)
	}
	return logs, nil
}
