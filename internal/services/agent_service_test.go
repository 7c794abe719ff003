package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/models"
	"taskpilot-backend/internal/store"
)

type fakeModel struct {
	response string
	err      error
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

type captureStore struct {
	entries chan store.AgentLog
	stored  []store.AgentLog
}

func newCaptureStore() *captureStore {
	return &captureStore{entries: make(chan store.AgentLog, 8)}
}

func (c *captureStore) SaveAgentLog(ctx context.Context, entry store.AgentLog) error {
	c.entries <- entry
	return nil
}

func (c *captureStore) ListAgentLogs(ctx context.Context, limit int) ([]store.AgentLog, error) {
	return c.stored, nil
}

func (c *captureStore) waitForEntry(t *testing.T) store.AgentLog {
	t.Helper()
	select {
	case entry := <-c.entries:
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("no agent log was persisted")
		return store.AgentLog{}
	}
}

const actionResponse = `{
	"agentInitialReply": "On it.",
	"actionDetails": {
		"intent": "TASK_CREATE",
		"target_tool": "Todoist",
		"parameters": {"content": "laundry"},
		"suggested_confirmation_message": "Added 'laundry'!"
	}
}`

func newTestService(model *fakeModel, handler agent.Handler, gate agent.CredentialGate, logStore store.Store) *AgentService {
	registry := agent.NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", handler)
	if gate == nil {
		gate = agent.AllowAll
	}
	return NewAgentService(model, agent.NewRouter(registry), gate, nil, logStore)
}

func TestProcessInputExecutesAction(t *testing.T) {
	logStore := newCaptureStore()
	calls := 0
	handler := func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		calls++
		assert.Equal(t, "laundry", params.Content)
		return &models.HandlerResult{Message: "created"}, nil
	}
	svc := newTestService(&fakeModel{response: actionResponse}, handler, nil, logStore)

	resp, err := svc.ProcessInput(context.Background(), "add laundry")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "add laundry", resp.Received)
	assert.Equal(t, "Added 'laundry'!", resp.Message)
	require.NotNil(t, resp.Response.Action)
	assert.Equal(t, models.ExecutionOK, resp.Response.Action.State)

	entry := logStore.waitForEntry(t)
	assert.True(t, entry.Success)
	assert.Equal(t, "add laundry", entry.Input)
}

func TestProcessInputConversationOnly(t *testing.T) {
	svc := newTestService(&fakeModel{response: `{"agentInitialReply": "Paris!", "actionDetails": null}`}, nil, nil, nil)

	resp, err := svc.ProcessInput(context.Background(), "capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris!", resp.Message)
	assert.Nil(t, resp.Response.Action)
	assert.Nil(t, resp.Result)
}

func TestProcessInputBlockedByCredentialGate(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		calls++
		return &models.HandlerResult{}, nil
	}
	gate := func(service string) error {
		return agent.FormatConfigurationError("Todoist", "TODOIST_API_KEY")
	}
	svc := newTestService(&fakeModel{response: actionResponse}, handler, gate, nil)

	resp, err := svc.ProcessInput(context.Background(), "add laundry")
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.Contains(t, resp.Message, "TODOIST_API_KEY")
	require.NotNil(t, resp.Response.Action)
	assert.Equal(t, models.ExecutionFailed, resp.Response.Action.State)
	// A terminal state always carries an execution timestamp.
	require.NotNil(t, resp.Response.Action.ExecutedAt)
	assert.True(t, resp.Response.Action.IsExecuted())
}

func TestProcessInputMalformedResponse(t *testing.T) {
	svc := newTestService(&fakeModel{response: "no JSON here"}, nil, nil, nil)

	_, err := svc.ProcessInput(context.Background(), "hello")
	assert.ErrorIs(t, err, agent.ErrMalformedResponse)
}

func TestListLogsWithoutStore(t *testing.T) {
	svc := newTestService(&fakeModel{}, nil, nil, nil)

	_, err := svc.ListLogs(context.Background(), 20)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListLogs(t *testing.T) {
	logStore := newCaptureStore()
	logStore.stored = []store.AgentLog{{Input: "add laundry", Success: true}}
	svc := newTestService(&fakeModel{}, nil, nil, logStore)

	logs, err := svc.ListLogs(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "add laundry", logs[0].Input)
}

func TestProcessInputModelFailure(t *testing.T) {
	svc := newTestService(&fakeModel{err: context.DeadlineExceeded}, nil, nil, nil)

	_, err := svc.ProcessInput(context.Background(), "hello")
	assert.ErrorIs(t, err, agent.ErrTransport)
}
