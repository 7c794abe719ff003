package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot-backend/internal/models"
)

func okHandler(message string) Handler {
	return func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		return &models.HandlerResult{Message: message}, nil
	}
}

func TestRegistryResolvePrefersSplitOverLegacy(t *testing.T) {
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", okHandler("split"))
	registry.RegisterLegacy("todoist", "TASK_CREATE", okHandler("legacy"))

	handler, found := registry.Resolve("Todoist", "TASK_CREATE")
	require.True(t, found)

	result, err := handler(context.Background(), models.ActionParams{})
	require.NoError(t, err)
	assert.Equal(t, "split", result.Message)
}

func TestRegistryResolveLegacyFallback(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterLegacy("todoist", "check_tasks", okHandler("legacy"))

	// "check_tasks" splits as CHECK/TASKS, which has no split entry, so the
	// legacy table must serve it.
	handler, found := registry.Resolve("todoist", NormalizeIntent("check_tasks"))
	require.True(t, found)
	result, err := handler(context.Background(), models.ActionParams{})
	require.NoError(t, err)
	assert.Equal(t, "legacy", result.Message)
}

func TestRegistryResolveMiss(t *testing.T) {
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", okHandler("x"))

	_, found := registry.Resolve("todoist", "TASK_DELETE")
	assert.False(t, found)
	_, found = registry.Resolve("slack", "TASK_CREATE")
	assert.False(t, found)
}

func TestRegistryValidate(t *testing.T) {
	registry := NewRegistry()
	require.Error(t, registry.Validate(), "an empty registry must not validate")

	registry.Register("todoist", "TASK", "CREATE", okHandler("x"))
	require.NoError(t, registry.Validate())

	registry.Register("todoist", "TASK", "DELETE", nil)
	require.Error(t, registry.Validate())
}

func TestDispatchUnknownActionIsNotExecutable(t *testing.T) {
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", okHandler("x"))
	router := NewRouter(registry)

	result := router.Dispatch(context.Background(), &models.AgentAction{
		Intent:     UnknownAction,
		TargetTool: "Todoist",
	})
	assert.False(t, result.Executed)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "can't execute")
}

func TestDispatchHandlerErrorBecomesFailureResult(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "DELETE", func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		return nil, boom
	})
	router := NewRouter(registry)

	result := router.Dispatch(context.Background(), &models.AgentAction{
		Intent:     "TASK_DELETE",
		TargetTool: "Todoist",
	})
	assert.True(t, result.Executed)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "failed")
	assert.ErrorIs(t, result.Err, boom)
}

func TestDispatchConfirmationPreference(t *testing.T) {
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		return &models.HandlerResult{Message: "handler message", URL: "https://todoist.com/task/1"}, nil
	})
	router := NewRouter(registry)

	// Suggested confirmation wins over the handler message.
	result := router.Dispatch(context.Background(), &models.AgentAction{
		Intent:                "TASK_CREATE",
		TargetTool:            "Todoist",
		SuggestedConfirmation: "All set!",
	})
	require.True(t, result.Success)
	assert.Equal(t, "All set!\nLink: https://todoist.com/task/1", result.Message)

	// Without a suggestion, the handler message is used.
	result = router.Dispatch(context.Background(), &models.AgentAction{
		Intent:     "TASK_CREATE",
		TargetTool: "Todoist",
	})
	require.True(t, result.Success)
	assert.Equal(t, "handler message\nLink: https://todoist.com/task/1", result.Message)
}

func TestDispatchGenericConfirmation(t *testing.T) {
	registry := NewRegistry()
	registry.Register("todoist", "TASK", "CREATE", func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error) {
		return &models.HandlerResult{}, nil
	})
	router := NewRouter(registry)

	result := router.Dispatch(context.Background(), &models.AgentAction{
		Intent:     "TASK_CREATE",
		TargetTool: "Todoist",
	})
	require.True(t, result.Success)
	assert.Equal(t, genericSuccessMessage, result.Message)
}
