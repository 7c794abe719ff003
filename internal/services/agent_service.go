package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/integrations/todoist"
	"taskpilot-backend/internal/llm"
	"taskpilot-backend/internal/models"
	"taskpilot-backend/internal/store"
)

// logTimeout bounds the fire-and-forget persistence write so a slow
// database can never hold a goroutine forever.
const logTimeout = 5 * time.Second

// AgentService drives the stateless single-turn pipeline behind POST
// /agent: prompt the model, validate the response, gate on credentials and
// dispatch. Session-based conversations live in the agent package; this
// service is the one-shot entry point.
type AgentService struct {
	model    llm.Model
	router   *agent.Router
	gate     agent.CredentialGate
	tasks    *todoist.Client
	logStore store.Store // nil when no database is configured
}

// NewAgentService creates the AgentService with its dependencies.
func NewAgentService(model llm.Model, router *agent.Router, gate agent.CredentialGate, tasks *todoist.Client, logStore store.Store) *AgentService {
	return &AgentService{
		model:    model,
		router:   router,
		gate:     gate,
		tasks:    tasks,
		logStore: logStore,
	}
}

// ProcessInput runs one input through the full pipeline. Validation
// failures are returned to the caller for status mapping; execution
// failures are folded into the response body, since the request itself
// succeeded.
func (s *AgentService) ProcessInput(ctx context.Context, input string) (*models.AgentProcessResponse, error) {
	log.Printf("[AgentService] ProcessInput: %q", truncate(input, 120))

	prompt := agent.BuildPrompt(nil, input)

	raw, err := s.model.Generate(ctx, prompt)
	if err != nil {
		s.logAsync(input, "", "model call failed: "+err.Error(), false)
		return nil, fmt.Errorf("%w: %v", agent.ErrTransport, err)
	}

	env, err := agent.ParseAgentResponse(raw)
	if err != nil {
		s.logAsync(input, raw, "response rejected: "+err.Error(), false)
		return nil, err
	}

	resp := &models.AgentProcessResponse{
		Received: input,
		Response: env,
		Message:  env.Reply,
	}

	if env.Action == nil {
		s.logAsync(input, raw, "conversation", true)
		return resp, nil
	}

	if err := s.gate(agent.NormalizeService(env.Action.TargetTool)); err != nil {
		now := time.Now()
		env.Action.State = models.ExecutionFailed
		env.Action.ExecutionResult = err.Error()
		env.Action.ExecutedAt = &now
		resp.Message = err.Error()
		s.logAsync(input, raw, resp.Message, false)
		return resp, nil
	}

	result := s.router.Dispatch(ctx, env.Action)
	if result.Executed {
		now := time.Now()
		if result.Success {
			env.Action.State = models.ExecutionOK
		} else {
			env.Action.State = models.ExecutionFailed
		}
		env.Action.ExecutionResult = result.Message
		env.Action.ExecutedAt = &now
	}
	resp.Result = result.Data
	resp.Message = result.Message

	s.logAsync(input, raw, result.Message, result.Success)
	return resp, nil
}

// ListTasks returns the raw task list from Todoist, bypassing the model.
func (s *AgentService) ListTasks(ctx context.Context) ([]todoist.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []todoist.Task{}
	}
	return tasks, nil
}

// ListLogs returns the most recent persisted pipeline trips, newest first.
func (s *AgentService) ListLogs(ctx context.Context, limit int) ([]store.AgentLog, error) {
	if s.logStore == nil {
		return nil, fmt.Errorf("%w: agent log persistence is not configured", store.ErrNotFound)
	}
	logs, err := s.logStore.ListAgentLogs(ctx, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []store.AgentLog{}
	}
	return logs, nil
}

// logAsync persists one pipeline trip without blocking the request path. A
// write failure is logged and dropped.
func (s *AgentService) logAsync(input, rawResponse, outcome string, success bool) {
	if s.logStore == nil {
		return
	}
	entry := store.AgentLog{
		ID:          uuid.New(),
		Input:       input,
		RawResponse: rawResponse,
		Outcome:     outcome,
		Success:     success,
		CreatedAt:   time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
		defer cancel()
		if err := s.logStore.SaveAgentLog(ctx, entry); err != nil {
			log.Printf("WARN [AgentService] Failed to persist agent log: %v", err)
		}
	}()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
