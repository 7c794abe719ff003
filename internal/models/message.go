package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageSender identifies which side of the conversation produced a message.
type MessageSender string

const (
	SenderUser  MessageSender = "user"
	SenderAgent MessageSender = "agent"
)

// ExecutionState tracks an action through its lifecycle. Transitions only
// move forward: PROPOSED -> EXECUTING -> EXECUTED_OK or EXECUTED_FAILED.
// An action never returns to PROPOSED once execution has started.
type ExecutionState string

const (
	ExecutionProposed ExecutionState = "PROPOSED"
	ExecutionRunning  ExecutionState = "EXECUTING"
	ExecutionOK       ExecutionState = "EXECUTED_OK"
	ExecutionFailed   ExecutionState = "EXECUTED_FAILED"
)

// ChatMessage represents a single turn in a conversation. Messages are only
// ever appended to a conversation; a loading placeholder is replaced in
// place (matched by ID) once the model call resolves.
type ChatMessage struct {
	ID        uuid.UUID     `json:"id"`
	Sender    MessageSender `json:"sender"`
	Text      string        `json:"text"`
	Timestamp time.Time     `json:"timestamp"`
	Action    *AgentAction  `json:"action,omitempty"`
	IsLoading bool          `json:"is_loading,omitempty"`
}

// AgentAction is a structured, executable action descriptor produced by the
// language model and validated before it reaches the intent router.
type AgentAction struct {
	Intent                string       `json:"intent"`
	TargetTool            string       `json:"target_tool"`
	Params                ActionParams `json:"parameters"`
	Description           string       `json:"description,omitempty"`
	SuggestedConfirmation string       `json:"suggested_confirmation_message,omitempty"`

	// Execution-state fields, absent until execution is attempted and then
	// set exactly once. A terminal state implies ExecutionResult is
	// non-empty and ExecutedAt is set.
	State           ExecutionState `json:"execution_state"`
	ExecutionResult string         `json:"execution_result,omitempty"`
	ExecutedAt      *time.Time     `json:"executed_at,omitempty"`
}

// IsExecuted reports whether the action has reached a terminal state.
func (a *AgentAction) IsExecuted() bool {
	return a.State == ExecutionOK || a.State == ExecutionFailed
}

// HandlerResult is what an action handler returns on success. URL, when set,
// is appended to the user-facing confirmation as a link line. Data carries
// the upstream payload (e.g. a created task) for API responses.
type HandlerResult struct {
	Message string      `json:"message,omitempty"`
	URL     string      `json:"url,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
