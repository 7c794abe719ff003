package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"taskpilot-backend/internal/models"
)

// UnknownAction is the sentinel intent assigned when the model omits one.
// It resolves to no handler, so the action surfaces as recognized but not
// executable instead of failing validation.
const UnknownAction = "UNKNOWN_ACTION"

var fenceRegex = regexp.MustCompile("(?s)^```([a-zA-Z0-9]*)?\\s*\\n?(.*?)\\n?\\s*```$")

// descriptor is the tolerant wire shape of an action descriptor. It accepts
// both the chat lineage (target_tool, suggested_confirmation_message) and
// the server lineage (target_app, confirmation_message) field names.
type descriptor struct {
	Intent                string          `json:"intent"`
	TargetTool            string          `json:"target_tool"`
	TargetApp             string          `json:"target_app"`
	Parameters            json.RawMessage `json:"parameters"`
	Description           string          `json:"description"`
	SuggestedConfirmation string          `json:"suggested_confirmation_message"`
	ConfirmationMessage   string          `json:"confirmation_message"`
}

type envelope struct {
	AgentInitialReply *string         `json:"agentInitialReply"`
	ActionDetails     json.RawMessage `json:"actionDetails"`
}

// CleanModelOutput strips the noise models wrap around JSON: surrounding
// whitespace, a fenced code block, or prose around the first {...} span.
// Cleaning is idempotent; fenced and unfenced equivalents yield the same
// text.
func CleanModelOutput(raw string) string {
	text := strings.TrimSpace(raw)

	if match := fenceRegex.FindStringSubmatch(text); match != nil {
		text = strings.TrimSpace(match[2])
	}

	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}

	return text
}

// ParseAgentResponse validates raw model output into an AgentEnvelope.
// It accepts either the envelope contract ({agentInitialReply,
// actionDetails}) or a bare action descriptor, and performs exactly one
// parse attempt; failures are surfaced as ErrMalformedResponse or
// ErrIncompleteResponse, never retried here.
func ParseAgentResponse(raw string) (*models.AgentEnvelope, error) {
	text := CleanModelOutput(raw)

	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, fmt.Errorf("%w: output is not a JSON object: %q", ErrMalformedResponse, snippet(text))
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if _, ok := probe["agentInitialReply"]; ok {
		var env envelope
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if env.AgentInitialReply == nil {
			return nil, fmt.Errorf("%w: missing %q in %s", ErrIncompleteResponse, "agentInitialReply", snippet(text))
		}

		result := &models.AgentEnvelope{Reply: *env.AgentInitialReply}
		if len(env.ActionDetails) > 0 && string(env.ActionDetails) != "null" {
			action, err := parseDescriptor(env.ActionDetails)
			if err != nil {
				return nil, err
			}
			result.Action = action
		}
		return result, nil
	}

	// Bare descriptor (server lineage): the whole object is the action.
	action, err := parseDescriptor([]byte(text))
	if err != nil {
		return nil, err
	}
	return &models.AgentEnvelope{Action: action}, nil
}

// parseDescriptor validates one action descriptor object. target and
// parameters are required; a missing intent defaults to UnknownAction.
func parseDescriptor(data []byte) (*models.AgentAction, error) {
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: action descriptor: %v", ErrMalformedResponse, err)
	}

	target := d.TargetTool
	if target == "" {
		target = d.TargetApp
	}
	if target == "" {
		return nil, fmt.Errorf("%w: missing %q in %s", ErrIncompleteResponse, "target_app", snippet(string(data)))
	}
	if len(d.Parameters) == 0 || string(d.Parameters) == "null" {
		return nil, fmt.Errorf("%w: missing %q in %s", ErrIncompleteResponse, "parameters", snippet(string(data)))
	}

	var params models.ActionParams
	if err := json.Unmarshal(d.Parameters, &params); err != nil {
		return nil, fmt.Errorf("%w: %q is not an object in %s", ErrIncompleteResponse, "parameters", snippet(string(data)))
	}

	intent := UnknownAction
	if strings.TrimSpace(d.Intent) != "" {
		intent = NormalizeIntent(d.Intent)
	}

	confirmation := d.SuggestedConfirmation
	if confirmation == "" {
		confirmation = d.ConfirmationMessage
	}

	return &models.AgentAction{
		Intent:                intent,
		TargetTool:            target,
		Params:                params,
		Description:           d.Description,
		SuggestedConfirmation: confirmation,
		State:                 models.ExecutionProposed,
	}, nil
}

// NormalizeIntent uppercases separator-joined intents so that
// "task_create" and "Task_Create" both become "TASK_CREATE". Intents
// without a separator are left as supplied.
func NormalizeIntent(intent string) string {
	intent = strings.TrimSpace(intent)
	if !strings.Contains(intent, "_") {
		return intent
	}
	return strings.ToUpper(intent)
}

// SplitIntent splits a normalized intent into its (entity, verb) halves on
// the first separator. ok is false when the intent has no separator.
func SplitIntent(intent string) (entity, verb string, ok bool) {
	parts := strings.SplitN(intent, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// NormalizeService lowercases a target service name for registry and
// credential lookups ("Todoist" -> "todoist").
func NormalizeService(service string) string {
	return strings.ToLower(strings.TrimSpace(service))
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
