package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ActionParams is the typed form of the open parameter bag the model emits.
// All alias resolution happens here, once, when the descriptor is decoded;
// downstream components read plain fields instead of probing a map. The raw
// bag is kept for diagnostics and round-tripping only.
//
// Alias precedence (first non-empty wins):
//
//	ID:       "id"
//	TaskID:   "taskId", "task_id"
//	Due:      "dueDate", "due_date", "due_datetime", "due_string", "due"
//	Content:  "content"
//	NewTitle: "newTitle", "new_title"
//	Query:    "query", "q", "search"
//	Quantity: "quantity", "limit", "max_results"
//	Channel:  "channel", "channel_id"
//	Text:     "text", "message", "body"
type ActionParams struct {
	ID          string
	TaskID      string
	Title       string
	Content     string
	NewTitle    string
	Name        string
	Description string
	Due         string
	Priority    int
	Labels      []string
	ProjectID   string
	SectionID   string
	ParentID    string
	Query       string
	Quantity    int
	Channel     string
	Text        string
	Color       string

	// Raw is the original parameter object as received from the model.
	Raw map[string]interface{}
}

// UnmarshalJSON decodes the open parameter object and folds known aliases
// into typed fields.
func (p *ActionParams) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ResolveParams(raw)
	return nil
}

// MarshalJSON writes the original parameter bag back out so descriptors
// round-trip unchanged through API responses.
func (p ActionParams) MarshalJSON() ([]byte, error) {
	if p.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Raw)
}

// ResolveParams folds a raw parameter map into typed fields using the
// documented alias precedence.
func ResolveParams(raw map[string]interface{}) ActionParams {
	return ActionParams{
		ID:          firstString(raw, "id"),
		TaskID:      firstString(raw, "taskId", "task_id"),
		Title:       firstString(raw, "title"),
		Content:     firstString(raw, "content"),
		NewTitle:    firstString(raw, "newTitle", "new_title"),
		Name:        firstString(raw, "name"),
		Description: firstString(raw, "description"),
		Due:         firstString(raw, "dueDate", "due_date", "due_datetime", "due_string", "due"),
		Priority:    firstInt(raw, "priority"),
		Labels:      stringSlice(raw, "labels"),
		ProjectID:   firstString(raw, "project_id", "projectId"),
		SectionID:   firstString(raw, "section_id", "sectionId"),
		ParentID:    firstString(raw, "parent_id", "parentId"),
		Query:       firstString(raw, "query", "q", "search"),
		Quantity:    firstInt(raw, "quantity", "limit", "max_results"),
		Channel:     firstString(raw, "channel", "channel_id"),
		Text:        firstString(raw, "text", "message", "body"),
		Color:       firstString(raw, "color"),
		Raw:         raw,
	}
}

// ExplicitID returns the explicitly supplied item identifier, preferring
// "id" over "taskId". Empty when neither was supplied.
func (p ActionParams) ExplicitID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.TaskID
}

// LookupText returns the free-text item reference used for lookup-by-content
// fallback, preferring "title" over "content".
func (p ActionParams) LookupText() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Content
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

func firstInt(raw map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func stringSlice(raw map[string]interface{}, key string) []string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
