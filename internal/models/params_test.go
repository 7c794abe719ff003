package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionParamsAliasResolution(t *testing.T) {
	var p ActionParams
	err := json.Unmarshal([]byte(`{
		"content": "buy milk",
		"due_date": "tomorrow",
		"priority": 3,
		"labels": ["errands", "home"],
		"task_id": "987"
	}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "buy milk", p.Content)
	assert.Equal(t, "tomorrow", p.Due)
	assert.Equal(t, 3, p.Priority)
	assert.Equal(t, []string{"errands", "home"}, p.Labels)
	assert.Equal(t, "987", p.TaskID)
}

func TestActionParamsDuePrecedence(t *testing.T) {
	// dueDate wins over due_string when both are present.
	var p ActionParams
	err := json.Unmarshal([]byte(`{"dueDate": "tomorrow", "due_string": "next week"}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "tomorrow", p.Due)

	// Lower-priority aliases still resolve on their own.
	var q ActionParams
	err = json.Unmarshal([]byte(`{"due": "friday"}`), &q)
	require.NoError(t, err)
	assert.Equal(t, "friday", q.Due)
}

func TestActionParamsNumericCoercion(t *testing.T) {
	var p ActionParams
	err := json.Unmarshal([]byte(`{"id": 42, "priority": "4", "quantity": 7}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, 4, p.Priority)
	assert.Equal(t, 7, p.Quantity)
}

func TestActionParamsExplicitID(t *testing.T) {
	p := ActionParams{ID: "1", TaskID: "2"}
	assert.Equal(t, "1", p.ExplicitID(), "id wins over taskId")

	p = ActionParams{TaskID: "2"}
	assert.Equal(t, "2", p.ExplicitID())

	assert.Empty(t, ActionParams{}.ExplicitID())
}

func TestActionParamsLookupText(t *testing.T) {
	p := ActionParams{Title: "a", Content: "b"}
	assert.Equal(t, "a", p.LookupText())

	p = ActionParams{Content: "b"}
	assert.Equal(t, "b", p.LookupText())
}

func TestActionParamsRoundTrip(t *testing.T) {
	raw := `{"content":"buy milk","custom_field":"kept"}`
	var p ActionParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	// Unknown keys survive in the raw bag and round-trip through responses.
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
