package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot-backend/internal/models"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const taskCreateResponse = `{
	"agentInitialReply": "Sure, adding that now.",
	"actionDetails": {
		"intent": "TASK_CREATE",
		"target_tool": "Todoist",
		"parameters": {"content": "laundry"},
		"description": "Add 'laundry' to Todoist.",
		"suggested_confirmation_message": "Added 'laundry'!"
	}
}`

func newTestConversation(model *fakeModel, handler Handler, gate CredentialGate) *Conversation {
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", handler)
	if gate == nil {
		gate = AllowAll
	}
	return NewConversation(model, NewRouter(registry), gate)
}

func TestNewConversationSeedsGreeting(t *testing.T) {
	conv := newTestConversation(&fakeModel{}, okHandler("ok"), nil)

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderAgent, msgs[0].Sender)
	assert.Equal(t, DefaultGreeting, msgs[0].Text)
}

func TestSubmitReplacesPlaceholderInPlace(t *testing.T) {
	model := &fakeModel{response: taskCreateResponse}
	conv := newTestConversation(model, okHandler("ok"), nil)

	reply, err := conv.Submit(context.Background(), "add laundry to todoist")
	require.NoError(t, err)

	msgs := conv.Messages()
	require.Len(t, msgs, 3) // greeting, user turn, resolved reply
	assert.Equal(t, models.SenderUser, msgs[1].Sender)
	assert.Equal(t, "add laundry to todoist", msgs[1].Text)

	assert.Equal(t, reply.ID, msgs[2].ID)
	assert.Equal(t, "Sure, adding that now.", msgs[2].Text)
	assert.False(t, msgs[2].IsLoading)
	require.NotNil(t, msgs[2].Action)
	assert.Equal(t, models.ExecutionProposed, msgs[2].Action.State)
}

func TestSubmitModelFailureBecomesApology(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	conv := newTestConversation(model, okHandler("ok"), nil)

	reply, err := conv.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, modelFailureMessage, reply.Text)
	assert.Nil(t, reply.Action)
}

func TestSubmitUnparseableResponse(t *testing.T) {
	model := &fakeModel{response: "sorry, no JSON today"}
	conv := newTestConversation(model, okHandler("ok"), nil)

	reply, err := conv.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, unusualReplyMessage, reply.Text)
	assert.Nil(t, reply.Action)
}

func TestExecuteActionLifecycle(t *testing.T) {
	model := &fakeModel{response: taskCreateResponse}
	calls := 0
	handler := func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		calls++
		assert.Equal(t, "laundry", params.Content)
		return &models.HandlerResult{Message: "created"}, nil
	}
	conv := newTestConversation(model, handler, nil)

	reply, err := conv.Submit(context.Background(), "add laundry")
	require.NoError(t, err)

	note, err := conv.ExecuteAction(context.Background(), reply.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Added 'laundry'!", note.Text)

	msgs := conv.Messages()
	require.Len(t, msgs, 4) // greeting, user, reply, confirmation note
	action := msgs[2].Action
	require.NotNil(t, action)
	assert.Equal(t, models.ExecutionOK, action.State)
	assert.Equal(t, "Added 'laundry'!", action.ExecutionResult)
	require.NotNil(t, action.ExecutedAt)
	assert.True(t, action.IsExecuted())
}

func TestExecuteActionIsIdempotent(t *testing.T) {
	model := &fakeModel{response: taskCreateResponse}
	calls := 0
	handler := func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		calls++
		return &models.HandlerResult{Message: "created"}, nil
	}
	conv := newTestConversation(model, handler, nil)

	reply, err := conv.Submit(context.Background(), "add laundry")
	require.NoError(t, err)

	_, err = conv.ExecuteAction(context.Background(), reply.ID)
	require.NoError(t, err)
	msg, err := conv.ExecuteAction(context.Background(), reply.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "a second confirmation must not re-run the handler")
	require.NotNil(t, msg.Action)
	assert.Equal(t, models.ExecutionOK, msg.Action.State)
}

func TestExecuteActionHandlerFailure(t *testing.T) {
	model := &fakeModel{response: taskCreateResponse}
	handler := func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		return nil, errors.New("upstream exploded")
	}
	conv := newTestConversation(model, handler, nil)

	reply, err := conv.Submit(context.Background(), "add laundry")
	require.NoError(t, err)

	note, err := conv.ExecuteAction(context.Background(), reply.ID)
	require.NoError(t, err)
	assert.Contains(t, note.Text, "failed")

	action := conv.Messages()[2].Action
	require.NotNil(t, action)
	assert.Equal(t, models.ExecutionFailed, action.State)
}

func TestExecuteActionBlockedByCredentialGate(t *testing.T) {
	model := &fakeModel{response: taskCreateResponse}
	calls := 0
	handler := func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		calls++
		return &models.HandlerResult{}, nil
	}
	gate := func(service string) error {
		return FormatConfigurationError("Todoist", "TODOIST_API_KEY")
	}
	conv := newTestConversation(model, handler, gate)

	reply, err := conv.Submit(context.Background(), "add laundry")
	require.NoError(t, err)

	note, err := conv.ExecuteAction(context.Background(), reply.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "a missing credential must not cost an upstream call")
	assert.Contains(t, note.Text, "TODOIST_API_KEY")

	action := conv.Messages()[2].Action
	require.NotNil(t, action)
	assert.Equal(t, models.ExecutionFailed, action.State)
}

func TestMessagesSnapshotDoesNotAliasLiveState(t *testing.T) {
	model := &fakeModel{response: taskCreateResponse}
	conv := newTestConversation(model, okHandler("created"), nil)

	reply, err := conv.Submit(context.Background(), "add laundry")
	require.NoError(t, err)

	snapshot := conv.Messages()
	require.NotNil(t, snapshot[2].Action)

	_, err = conv.ExecuteAction(context.Background(), reply.ID)
	require.NoError(t, err)

	// The earlier snapshot keeps its pre-execution state.
	assert.Equal(t, models.ExecutionProposed, snapshot[2].Action.State)
	assert.Nil(t, snapshot[2].Action.ExecutedAt)
	// A fresh snapshot reflects the executed state.
	assert.Equal(t, models.ExecutionOK, conv.Messages()[2].Action.State)
}

func TestExecuteActionErrors(t *testing.T) {
	conv := newTestConversation(&fakeModel{}, okHandler("ok"), nil)

	_, err := conv.ExecuteAction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMessageNotFound)

	// The greeting carries no action.
	greeting := conv.Messages()[0]
	_, err = conv.ExecuteAction(context.Background(), greeting.ID)
	assert.ErrorIs(t, err, ErrNoAction)
}
