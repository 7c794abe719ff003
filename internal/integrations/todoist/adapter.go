package todoist

import (
	"context"
	"fmt"
	"strings"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/models"
)

// Adapter exposes one operation per verb per entity over the Todoist
// client. Each operation performs exactly one external call sequence per
// invocation; the lookup-by-content fallback counts as two calls (one list,
// one client-side filter).
type Adapter struct {
	client *Client
}

// NewAdapter creates an adapter over a Todoist client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Client exposes the underlying REST client for direct list endpoints.
func (a *Adapter) Client() *Client {
	return a.client
}

// resolveTaskID resolves the task an action refers to. Precedence: explicit
// "id", then "taskId", then a case-insensitive substring match of
// title/content against the full current task list. Fails with a missing
// identifier error when nothing resolves; the explicit forms are trusted
// without a verification call.
func (a *Adapter) resolveTaskID(ctx context.Context, p models.ActionParams) (string, error) {
	if id := p.ExplicitID(); id != "" {
		return id, nil
	}

	text := p.LookupText()
	if text == "" {
		return "", fmt.Errorf("%w: no id, taskId, title or content supplied", agent.ErrMissingIdentifier)
	}

	tasks, err := a.client.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(text)
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Content), needle) {
			return task.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no task matches %q", agent.ErrMissingIdentifier, text)
}

// buildTaskPatch assembles a partial update from whichever aliases were
// supplied. Missing values are omitted from the patch, never sent as null.
func buildTaskPatch(p models.ActionParams) (UpdateTaskParams, error) {
	patch := UpdateTaskParams{
		Description: p.Description,
		Labels:      p.Labels,
		Priority:    p.Priority,
		DueString:   p.Due,
	}
	if p.NewTitle != "" {
		patch.Content = p.NewTitle
	} else if p.Content != "" {
		patch.Content = p.Content
	}
	if patch.IsEmpty() {
		return UpdateTaskParams{}, fmt.Errorf("%w: no content, due date, priority, labels or description supplied", agent.ErrEmptyUpdate)
	}
	return patch, nil
}

// --- Task handlers ---

func (a *Adapter) CreateTask(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	content := p.Content
	if content == "" {
		content = p.Title
	}
	if content == "" {
		return nil, fmt.Errorf("%w: task content is required", agent.ErrMissingIdentifier)
	}

	task, err := a.client.CreateTask(ctx, CreateTaskParams{
		Content:     content,
		Description: p.Description,
		ProjectID:   p.ProjectID,
		SectionID:   p.SectionID,
		ParentID:    p.ParentID,
		Labels:      p.Labels,
		Priority:    p.Priority,
		DueString:   p.Due,
	})
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Created task %q in Todoist.", task.Content),
		URL:     task.URL,
		Data:    task,
	}, nil
}

func (a *Adapter) UpdateTask(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	// Patch first: an empty update never costs a network call.
	patch, err := buildTaskPatch(p)
	if err != nil {
		return nil, err
	}
	id, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	task, err := a.client.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: "Updated the task in Todoist.",
		URL:     task.URL,
		Data:    task,
	}, nil
}

func (a *Adapter) DeleteTask(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := a.client.DeleteTask(ctx, id); err != nil {
		return nil, err
	}
	return &models.HandlerResult{Message: "Deleted the task from Todoist."}, nil
}

func (a *Adapter) CompleteTask(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := a.client.CloseTask(ctx, id); err != nil {
		return nil, err
	}
	return &models.HandlerResult{Message: "Marked the task as complete."}, nil
}

func (a *Adapter) ReopenTask(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := a.client.ReopenTask(ctx, id); err != nil {
		return nil, err
	}
	return &models.HandlerResult{Message: "Reopened the task."}, nil
}

func (a *Adapter) ListTasks(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	tasks, err := a.client.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	total := len(tasks)
	if p.Quantity > 0 && len(tasks) > p.Quantity {
		tasks = tasks[:p.Quantity]
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("You have %d open tasks in Todoist.", total),
		Data:    tasks,
	}, nil
}

func (a *Adapter) GetTask(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	task, err := a.client.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Task: %s", task.Content),
		URL:     task.URL,
		Data:    task,
	}, nil
}

// SearchTasks filters the full task list client-side because the REST API
// has no native search endpoint. This is O(n) in the number of open tasks:
// one list call, then a case-insensitive substring match on content and
// description.
func (a *Adapter) SearchTasks(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	query := p.Query
	if query == "" {
		query = p.LookupText()
	}
	if query == "" {
		return nil, fmt.Errorf("%w: a search query is required", agent.ErrMissingIdentifier)
	}

	tasks, err := a.client.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matches := make([]Task, 0)
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Content), needle) ||
			strings.Contains(strings.ToLower(task.Description), needle) {
			matches = append(matches, task)
		}
	}
	total := len(matches)
	if p.Quantity > 0 && len(matches) > p.Quantity {
		matches = matches[:p.Quantity]
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("%d tasks match %q.", total, query),
		Data:    matches,
	}, nil
}

// --- Project handlers ---

func (a *Adapter) resolveProjectID(ctx context.Context, p models.ActionParams) (string, error) {
	if id := p.ExplicitID(); id != "" {
		return id, nil
	}
	name := p.Name
	if name == "" {
		name = p.LookupText()
	}
	if name == "" {
		return "", fmt.Errorf("%w: no id or name supplied for the project", agent.ErrMissingIdentifier)
	}

	projects, err := a.client.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(name)
	for _, project := range projects {
		if strings.Contains(strings.ToLower(project.Name), needle) {
			return project.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no project matches %q", agent.ErrMissingIdentifier, name)
}

func (a *Adapter) CreateProject(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	name := p.Name
	if name == "" {
		name = p.LookupText()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: a project name is required", agent.ErrMissingIdentifier)
	}
	project, err := a.client.CreateProject(ctx, name)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Created project %q.", project.Name),
		URL:     project.URL,
		Data:    project,
	}, nil
}

func (a *Adapter) GetProject(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id, err := a.resolveProjectID(ctx, p)
	if err != nil {
		return nil, err
	}
	project, err := a.client.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Project: %s", project.Name),
		URL:     project.URL,
		Data:    project,
	}, nil
}

func (a *Adapter) ListProjects(ctx context.Context, _ models.ActionParams) (*models.HandlerResult, error) {
	projects, err := a.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("You have %d projects.", len(projects)),
		Data:    projects,
	}, nil
}

func (a *Adapter) UpdateProject(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	name := p.NewTitle
	if name == "" {
		return nil, fmt.Errorf("%w: no new name supplied for the project", agent.ErrEmptyUpdate)
	}
	id, err := a.resolveProjectID(ctx, p)
	if err != nil {
		return nil, err
	}
	project, err := a.client.UpdateProject(ctx, id, name)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Renamed the project to %q.", name),
		Data:    project,
	}, nil
}

func (a *Adapter) DeleteProject(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id, err := a.resolveProjectID(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := a.client.DeleteProject(ctx, id); err != nil {
		return nil, err
	}
	return &models.HandlerResult{Message: "Deleted the project."}, nil
}

// --- Section handlers ---

func (a *Adapter) CreateSection(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	name := p.Name
	if name == "" {
		name = p.LookupText()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: a section name is required", agent.ErrMissingIdentifier)
	}
	if p.ProjectID == "" {
		return nil, fmt.Errorf("%w: a project_id is required for a section", agent.ErrMissingIdentifier)
	}
	section, err := a.client.CreateSection(ctx, name, p.ProjectID)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Created section %q.", section.Name),
		Data:    section,
	}, nil
}

func (a *Adapter) ListSections(ctx context.Context, _ models.ActionParams) (*models.HandlerResult, error) {
	sections, err := a.client.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("You have %d sections.", len(sections)),
		Data:    sections,
	}, nil
}

func (a *Adapter) DeleteSection(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	id := p.ExplicitID()
	if id == "" {
		return nil, fmt.Errorf("%w: a section id is required", agent.ErrMissingIdentifier)
	}
	if err := a.client.DeleteSection(ctx, id); err != nil {
		return nil, err
	}
	return &models.HandlerResult{Message: "Deleted the section."}, nil
}

// --- Label handlers ---

func (a *Adapter) CreateLabel(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	name := p.Name
	if name == "" {
		name = p.LookupText()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: a label name is required", agent.ErrMissingIdentifier)
	}
	label, err := a.client.CreateLabel(ctx, name, p.Color)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Created label %q.", label.Name),
		Data:    label,
	}, nil
}

func (a *Adapter) ListLabels(ctx context.Context, _ models.ActionParams) (*models.HandlerResult, error) {
	labels, err := a.client.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("You have %d labels.", len(labels)),
		Data:    labels,
	}, nil
}

func (a *Adapter) DeleteLabel(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	if id := p.ExplicitID(); id != "" {
		if err := a.client.DeleteLabel(ctx, id); err != nil {
			return nil, err
		}
		return &models.HandlerResult{Message: "Deleted the label."}, nil
	}

	name := p.Name
	if name == "" {
		name = p.LookupText()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no id or name supplied for the label", agent.ErrMissingIdentifier)
	}
	labels, err := a.client.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	for _, label := range labels {
		if strings.Contains(strings.ToLower(label.Name), needle) {
			if err := a.client.DeleteLabel(ctx, label.ID); err != nil {
				return nil, err
			}
			return &models.HandlerResult{Message: fmt.Sprintf("Deleted label %q.", label.Name)}, nil
		}
	}
	return nil, fmt.Errorf("%w: no label matches %q", agent.ErrMissingIdentifier, name)
}

// --- Comment handlers ---

func (a *Adapter) CreateComment(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	text := p.Text
	if text == "" {
		text = p.Description
	}
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", agent.ErrMissingIdentifier)
	}
	taskID, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	comment, err := a.client.CreateComment(ctx, taskID, text)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: "Added a comment to the task.",
		Data:    comment,
	}, nil
}

func (a *Adapter) ListComments(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	taskID, err := a.resolveTaskID(ctx, p)
	if err != nil {
		return nil, err
	}
	comments, err := a.client.ListComments(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("The task has %d comments.", len(comments)),
		Data:    comments,
	}, nil
}
