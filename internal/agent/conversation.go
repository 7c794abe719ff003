package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskpilot-backend/internal/llm"
	"taskpilot-backend/internal/models"
)

// ThinkingPlaceholder is the transient text shown while a turn awaits the
// model response.
const ThinkingPlaceholder = "Thinking..."

const (
	modelFailureMessage  = "Sorry, I encountered an error while trying to process your request with the AI. Please try again."
	unusualReplyMessage  = "I received an unusual response. Could you try rephrasing?"
	executingPlaceholder = "Executing..."
)

var (
	// ErrMessageNotFound is returned when a message ID does not exist in the
	// conversation.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNoAction is returned when execution is requested for a message that
	// carries no action.
	ErrNoAction = errors.New("message has no executable action")
)

// CredentialGate reports whether the credentials for a target service are
// configured. A non-nil error wraps ErrConfiguration and carries the
// user-facing explanation. The gate runs before any handler is invoked so a
// missing credential never costs an upstream call.
type CredentialGate func(service string) error

// Conversation owns one session's ordered message sequence and drives the
// request/response/execution cycle. Messages are appended or replaced in
// place by ID, never deleted; the per-turn and per-action state machines
// only move forward.
type Conversation struct {
	ID uuid.UUID

	mu       sync.Mutex
	messages []models.ChatMessage
	updated  time.Time

	model  llm.Model
	router *Router
	gate   CredentialGate
}

// NewConversation creates a conversation seeded with the default greeting.
func NewConversation(model llm.Model, router *Router, gate CredentialGate) *Conversation {
	c := &Conversation{
		ID:     uuid.New(),
		model:  model,
		router: router,
		gate:   gate,
	}
	c.messages = append(c.messages, models.ChatMessage{
		ID:        uuid.New(),
		Sender:    models.SenderAgent,
		Text:      DefaultGreeting,
		Timestamp: time.Now(),
	})
	c.updated = time.Now()
	return c
}

// Submit runs one user turn: append the user message and a loading
// placeholder, call the model with the bounded history, then replace the
// placeholder in place with the resolved reply (and proposed action, if
// any). Model and validation failures become apologetic agent messages; the
// turn is never retried automatically.
func (c *Conversation) Submit(ctx context.Context, text string) (models.ChatMessage, error) {
	c.mu.Lock()
	history := make([]models.ChatMessage, len(c.messages))
	copy(history, c.messages)

	now := time.Now()
	userMsg := models.ChatMessage{
		ID:        uuid.New(),
		Sender:    models.SenderUser,
		Text:      text,
		Timestamp: now,
	}
	placeholder := models.ChatMessage{
		ID:        uuid.New(),
		Sender:    models.SenderAgent,
		Text:      ThinkingPlaceholder,
		Timestamp: now,
		IsLoading: true,
	}
	c.messages = append(c.messages, userMsg, placeholder)
	c.updated = now
	c.mu.Unlock()

	prompt := BuildPrompt(history, text)

	raw, err := c.model.Generate(ctx, prompt)
	if err != nil {
		log.Printf("ERROR [Conversation %s] Model call failed: %v", c.ID, err)
		return c.replaceMessage(placeholder.ID, modelFailureMessage, nil), nil
	}

	env, err := ParseAgentResponse(raw)
	if err != nil {
		log.Printf("WARN [Conversation %s] Model response rejected: %v", c.ID, err)
		return c.replaceMessage(placeholder.ID, unusualReplyMessage, nil), nil
	}

	reply := env.Reply
	if reply == "" && env.Action != nil {
		reply = env.Action.Description
	}
	return c.replaceMessage(placeholder.ID, reply, env.Action), nil
}

// ExecuteAction executes the PROPOSED action attached to a message. The
// credential gate runs first; when it fails, the action is marked
// EXECUTED_FAILED with the configuration-error text and no handler is
// invoked. Executing an already-executed action is a no-op that returns the
// message with its recorded result.
func (c *Conversation) ExecuteAction(ctx context.Context, messageID uuid.UUID) (models.ChatMessage, error) {
	c.mu.Lock()
	idx := c.indexOf(messageID)
	if idx < 0 {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrMessageNotFound
	}
	action := c.messages[idx].Action
	if action == nil {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrNoAction
	}
	if action.State != models.ExecutionProposed {
		msg := cloneMessage(c.messages[idx])
		c.mu.Unlock()
		return msg, nil
	}

	if err := c.gate(NormalizeService(action.TargetTool)); err != nil {
		now := time.Now()
		action.State = models.ExecutionFailed
		action.ExecutionResult = err.Error()
		action.ExecutedAt = &now
		note := c.appendAgentMessageLocked(err.Error())
		c.mu.Unlock()
		log.Printf("WARN [Conversation %s] Execution blocked for %q: %v", c.ID, action.TargetTool, err)
		return note, nil
	}

	action.State = models.ExecutionRunning
	action.ExecutionResult = executingPlaceholder
	c.updated = time.Now()
	c.mu.Unlock()

	result := c.router.Dispatch(ctx, action)

	c.mu.Lock()
	now := time.Now()
	if result.Success {
		action.State = models.ExecutionOK
	} else {
		action.State = models.ExecutionFailed
	}
	action.ExecutionResult = result.Message
	action.ExecutedAt = &now
	note := c.appendAgentMessageLocked(result.Message)
	c.mu.Unlock()

	return note, nil
}

// Messages returns a snapshot of the full displayed sequence. Actions are
// copied, not aliased, so serializing a snapshot never races with execution
// state writes.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.messages))
	for i := range c.messages {
		out[i] = cloneMessage(c.messages[i])
	}
	return out
}

// LastActive reports when the conversation was last touched, for session
// expiry decisions.
func (c *Conversation) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated
}

// replaceMessage swaps the placeholder (matched by ID) for its final text
// and optional action. The message keeps its ID so the UI can replace it in
// place.
func (c *Conversation) replaceMessage(id uuid.UUID, text string, action *models.AgentAction) models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		// Placeholder vanished; should not happen since messages are never
		// deleted, but append rather than drop the reply.
		return c.appendAgentMessageLocked(text)
	}

	c.messages[idx] = models.ChatMessage{
		ID:        id,
		Sender:    models.SenderAgent,
		Text:      text,
		Timestamp: time.Now(),
		Action:    action,
	}
	c.updated = time.Now()
	return cloneMessage(c.messages[idx])
}

// cloneMessage copies a message together with its action, if any, so
// returned messages never share execution state with the live sequence.
func cloneMessage(msg models.ChatMessage) models.ChatMessage {
	if msg.Action == nil {
		return msg
	}
	action := *msg.Action
	if action.ExecutedAt != nil {
		at := *action.ExecutedAt
		action.ExecutedAt = &at
	}
	msg.Action = &action
	return msg
}

func (c *Conversation) appendAgentMessageLocked(text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        uuid.New(),
		Sender:    models.SenderAgent,
		Text:      text,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, msg)
	c.updated = time.Now()
	return msg
}

func (c *Conversation) indexOf(id uuid.UUID) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// AllowAll is a CredentialGate that never blocks; useful in tests.
func AllowAll(string) error { return nil }

// FormatConfigurationError builds the standard user-facing text for a
// missing credential.
func FormatConfigurationError(service, envVar string) error {
	return fmt.Errorf("%w: the %s integration is not configured. Set %s to enable it", ErrConfiguration, service, envVar)
}
