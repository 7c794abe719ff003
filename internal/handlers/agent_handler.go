package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/models"
	"taskpilot-backend/internal/services"
	"taskpilot-backend/internal/store"
	"taskpilot-backend/pkg/httputil"
)

// AgentHandlers handles the stateless agent endpoints.
type AgentHandlers struct {
	agentService *services.AgentService
}

// NewAgentHandlers creates a new AgentHandlers instance.
func NewAgentHandlers(agentService *services.AgentService) *AgentHandlers {
	return &AgentHandlers{agentService: agentService}
}

// HandleProcessInput handles POST /agent: one input through the full
// pipeline, no session state.
func (h *AgentHandlers) HandleProcessInput(w http.ResponseWriter, r *http.Request) {
	var req models.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Field 'input' is required")
		return
	}

	resp, err := h.agentService.ProcessInput(r.Context(), req.Input)
	if err != nil {
		if errors.Is(err, agent.ErrMalformedResponse) || errors.Is(err, agent.ErrIncompleteResponse) {
			httputil.RespondError(w, http.StatusBadRequest, "The model returned an unusable response: "+err.Error())
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to process input: "+err.Error())
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListTasks handles GET /tasks: the raw Todoist task list, bypassing
// the model.
func (h *AgentHandlers) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.agentService.ListTasks(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list tasks: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, tasks)
}

// HandleListLogs handles GET /v1/logs: recent agent request/response logs
// from the persistence side channel. 404 when no database is configured.
func (h *AgentHandlers) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	logs, err := h.agentService.ListLogs(r.Context(), limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Agent log persistence is not configured")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list logs: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, logs)
}
