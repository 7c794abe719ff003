// Package todoist adapts agent actions onto the Todoist REST v2 API:
// a thin bearer-authenticated HTTP client plus per-entity/verb operations
// with tolerant parameter normalization.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskpilot-backend/internal/agent"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// Due is Todoist's due-date object.
type Due struct {
	String   string `json:"string"`
	Date     string `json:"date"`
	Datetime string `json:"datetime,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Task mirrors the REST v2 task resource.
type Task struct {
	ID           string   `json:"id"`
	Content      string   `json:"content"`
	Description  string   `json:"description,omitempty"`
	ProjectID    string   `json:"project_id,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
	ParentID     string   `json:"parent_id,omitempty"`
	Order        int      `json:"order,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Priority     int      `json:"priority,omitempty"`
	Due          *Due     `json:"due,omitempty"`
	URL          string   `json:"url,omitempty"`
	CommentCount int      `json:"comment_count,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	IsCompleted  bool     `json:"is_completed"`
}

// Project mirrors the REST v2 project resource.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	IsFavorite bool   `json:"is_favorite,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Section mirrors the REST v2 section resource.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Order     int    `json:"order,omitempty"`
	Name      string `json:"name"`
}

// Label mirrors the REST v2 label resource.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Comment mirrors the REST v2 comment resource.
type Comment struct {
	ID       string `json:"id"`
	TaskID   string `json:"task_id,omitempty"`
	Content  string `json:"content"`
	PostedAt string `json:"posted_at,omitempty"`
}

// CreateTaskParams is the body for task creation.
type CreateTaskParams struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
}

// UpdateTaskParams is a partial patch; fields with no supplied value are
// omitted entirely, never sent as null.
type UpdateTaskParams struct {
	Content     string   `json:"content,omitempty"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p UpdateTaskParams) IsEmpty() bool {
	return p.Content == "" && p.Description == "" && len(p.Labels) == 0 &&
		p.Priority == 0 && p.DueString == ""
}

// Client is a minimal Todoist REST v2 client with uniform response
// handling: non-success statuses fail as upstream errors, 204 is a
// bodiless success, and unparsable success bodies fail as parse errors.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the production API.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithBaseURL creates a client against a custom base URL; used by
// tests to point at a fake upstream.
func NewClientWithBaseURL(token, baseURL string, timeout time.Duration) *Client {
	c := NewClient(token, timeout)
	c.baseURL = baseURL
	return c
}

// do issues one request and applies the uniform response handling. No
// automatic retry: transient failures propagate to the caller as-is.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", agent.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s %s returned status %d: %s", agent.ErrUpstream, method, path, resp.StatusCode, string(text))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", agent.ErrUpstreamParse, method, path, err)
	}
	return nil
}

// --- Tasks ---

func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, params CreateTaskParams) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}

func (c *Client) CloseTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+id+"/close", nil, nil)
}

func (c *Client) ReopenTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+id+"/reopen", nil, nil)
}

// --- Projects ---

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+id, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	var project Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/projects", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) UpdateProject(ctx context.Context, id, name string) (*Project, error) {
	var project Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/projects/"+id, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+id, nil, nil)
}

// --- Sections ---

func (c *Client) ListSections(ctx context.Context) ([]Section, error) {
	var sections []Section
	if err := c.do(ctx, http.MethodGet, "/sections", nil, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (c *Client) CreateSection(ctx context.Context, name, projectID string) (*Section, error) {
	var section Section
	body := map[string]string{"name": name, "project_id": projectID}
	if err := c.do(ctx, http.MethodPost, "/sections", body, &section); err != nil {
		return nil, err
	}
	return &section, nil
}

func (c *Client) DeleteSection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sections/"+id, nil, nil)
}

// --- Labels ---

func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var labels []Label
	if err := c.do(ctx, http.MethodGet, "/labels", nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func (c *Client) CreateLabel(ctx context.Context, name, color string) (*Label, error) {
	var label Label
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	if err := c.do(ctx, http.MethodPost, "/labels", body, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/labels/"+id, nil, nil)
}

// --- Comments ---

func (c *Client) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, "/comments?task_id="+taskID, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, taskID, content string) (*Comment, error) {
	var comment Comment
	body := map[string]string{"task_id": taskID, "content": content}
	if err := c.do(ctx, http.MethodPost, "/comments", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
