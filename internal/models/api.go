package models

import (
	"github.com/google/uuid"
)

// ServiceType identifies an external service an action can target.
// Values are the normalized (lowercased) form of the model's target_tool.
type ServiceType string

const (
	ServiceTypeTodoist ServiceType = "todoist"
	ServiceTypeSlack   ServiceType = "slack"
	ServiceTypeNotion  ServiceType = "notion"

	// ServiceTypeGeneral is the model's target for chitchat and anything
	// with no tool-based action. It has no registered handlers.
	ServiceTypeGeneral ServiceType = "generalconversation"
)

// AgentEnvelope is the validated form of a model response: a conversational
// reply plus an optional action descriptor.
type AgentEnvelope struct {
	Reply  string       `json:"agent_initial_reply"`
	Action *AgentAction `json:"action_details,omitempty"`
}

// --- Request structs ---

// AgentRequest defines the body for the one-shot /agent endpoint.
type AgentRequest struct {
	Input string `json:"input"`
}

// TokenRequest defines the body for minting a client token.
type TokenRequest struct {
	Secret string `json:"secret"`
}

// AddMessageRequest defines the body for submitting one user turn to a
// conversation session.
type AddMessageRequest struct {
	Text string `json:"text"`
}

// --- Response structs ---

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TokenResponse defines the response body for a minted token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AgentProcessResponse defines the response body for the /agent endpoint.
// Result is only present when an action was actually executed.
type AgentProcessResponse struct {
	Received string         `json:"received"`
	Response *AgentEnvelope `json:"response"`
	Result   interface{}    `json:"result,omitempty"`
	Message  string         `json:"message"`
}

// SessionResponse defines the representation of a conversation session,
// including its full displayed message sequence.
type SessionResponse struct {
	ID       uuid.UUID     `json:"id"`
	Messages []ChatMessage `json:"messages"`
}
