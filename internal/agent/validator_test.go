package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot-backend/internal/models"
)

func TestCleanModelOutput(t *testing.T) {
	fenced := "```json\n{\"a\": 1}\n```"
	bare := "{\"a\": 1}"

	assert.Equal(t, bare, CleanModelOutput(fenced))
	assert.Equal(t, bare, CleanModelOutput(bare))
	assert.Equal(t, bare, CleanModelOutput("  \n"+fenced+"\n  "))

	// Cleaning is idempotent.
	assert.Equal(t, CleanModelOutput(fenced), CleanModelOutput(CleanModelOutput(fenced)))
}

func TestCleanModelOutputEmbeddedJSON(t *testing.T) {
	raw := "Here is the response you asked for:\n{\"agentInitialReply\": \"hi\"}\nHope that helps!"
	assert.Equal(t, `{"agentInitialReply": "hi"}`, CleanModelOutput(raw))
}

func TestParseAgentResponseEnvelopeWithAction(t *testing.T) {
	raw := `{
		"agentInitialReply": "Sure, I can add that.",
		"actionDetails": {
			"intent": "TASK_CREATE",
			"target_tool": "Todoist",
			"parameters": {"content": "laundry", "dueDate": "this evening"},
			"description": "Add 'laundry' to Todoist.",
			"suggested_confirmation_message": "Added 'laundry' to your Todoist."
		}
	}`

	env, err := ParseAgentResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Sure, I can add that.", env.Reply)
	require.NotNil(t, env.Action)
	assert.Equal(t, "TASK_CREATE", env.Action.Intent)
	assert.Equal(t, "Todoist", env.Action.TargetTool)
	assert.Equal(t, "laundry", env.Action.Params.Content)
	assert.Equal(t, "this evening", env.Action.Params.Due)
	assert.Equal(t, models.ExecutionProposed, env.Action.State)
}

func TestParseAgentResponseReplyOnlyFenced(t *testing.T) {
	raw := "```json\n{\"agentInitialReply\": \"Hello there!\", \"actionDetails\": null}\n```"

	env, err := ParseAgentResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", env.Reply)
	assert.Nil(t, env.Action)
}

func TestParseAgentResponseFencedReplyWithoutActionKey(t *testing.T) {
	raw := "```json\n{\"agentInitialReply\":\"hi\"}\n```"

	env, err := ParseAgentResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "hi", env.Reply)
	assert.Nil(t, env.Action)
}

func TestParseAgentResponseBareDescriptor(t *testing.T) {
	raw := `{
		"intent": "task_create",
		"target_app": "todoist",
		"parameters": {"content": "buy milk"},
		"confirmation_message": "Task added."
	}`

	env, err := ParseAgentResponse(raw)
	require.NoError(t, err)
	assert.Empty(t, env.Reply)
	require.NotNil(t, env.Action)
	assert.Equal(t, "TASK_CREATE", env.Action.Intent)
	assert.Equal(t, "todoist", env.Action.TargetTool)
	assert.Equal(t, "Task added.", env.Action.SuggestedConfirmation)
}

func TestParseAgentResponseMissingIntentDefaultsToUnknown(t *testing.T) {
	raw := `{"target_tool": "Todoist", "parameters": {"content": "x"}}`

	env, err := ParseAgentResponse(raw)
	require.NoError(t, err)
	require.NotNil(t, env.Action)
	assert.Equal(t, UnknownAction, env.Action.Intent)
}

func TestParseAgentResponseRejectsNonJSON(t *testing.T) {
	_, err := ParseAgentResponse("I could not produce JSON, sorry.")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseAgentResponseRejectsMissingTarget(t *testing.T) {
	raw := `{"intent": "TASK_CREATE", "parameters": {"content": "x"}}`

	_, err := ParseAgentResponse(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteResponse)
	assert.Contains(t, err.Error(), "target_app")
}

func TestParseAgentResponseRejectsMissingParameters(t *testing.T) {
	raw := `{"agentInitialReply": "ok", "actionDetails": {"intent": "TASK_CREATE", "target_tool": "Todoist"}}`

	_, err := ParseAgentResponse(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteResponse)
	assert.Contains(t, err.Error(), "parameters")
}

func TestParseAgentResponseRejectsNullReply(t *testing.T) {
	raw := `{"agentInitialReply": null, "actionDetails": null}`

	_, err := ParseAgentResponse(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteResponse)
}

func TestNormalizeIntent(t *testing.T) {
	assert.Equal(t, "TASK_CREATE", NormalizeIntent("task_create"))
	assert.Equal(t, "TASK_CREATE", NormalizeIntent("Task_Create"))
	assert.Equal(t, "TASK_CREATE", NormalizeIntent("  TASK_CREATE  "))
	// No separator: left as supplied.
	assert.Equal(t, "createTask", NormalizeIntent("createTask"))
}

func TestSplitIntent(t *testing.T) {
	entity, verb, ok := SplitIntent("TASK_CREATE")
	require.True(t, ok)
	assert.Equal(t, "TASK", entity)
	assert.Equal(t, "CREATE", verb)

	// The verb keeps any further separators.
	entity, verb, ok = SplitIntent("TASK_MARK_DONE")
	require.True(t, ok)
	assert.Equal(t, "TASK", entity)
	assert.Equal(t, "MARK_DONE", verb)

	_, _, ok = SplitIntent("GREETING")
	assert.False(t, ok)
}

func TestNormalizeService(t *testing.T) {
	assert.Equal(t, "todoist", NormalizeService(" Todoist "))
	assert.Equal(t, "generalconversation", NormalizeService("GeneralConversation"))
}
