// Package store defines the persistence side channel for agent
// request/response logs. Logging is fire-and-forget: the request path never
// waits on or fails because of it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// AgentLog records one trip through the pipeline: the user input, the raw
// model output, and how execution ended.
type AgentLog struct {
	ID          uuid.UUID
	SessionID   *uuid.UUID
	Input       string
	RawResponse string
	Outcome     string
	Success     bool
	CreatedAt   time.Time
}

// Store defines the interface for log persistence. This allows for mocking
// in tests and running without a database entirely.
type Store interface {
	SaveAgentLog(ctx context.Context, entry AgentLog) error
	ListAgentLogs(ctx context.Context, limit int) ([]AgentLog, error)
}
