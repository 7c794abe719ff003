package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/models"
	"taskpilot-backend/pkg/httputil"
)

// SessionHandlers handles the conversation session endpoints.
type SessionHandlers struct {
	sessions *agent.SessionStore
}

// NewSessionHandlers creates a new SessionHandlers instance.
func NewSessionHandlers(sessions *agent.SessionStore) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

// HandleCreateSession handles requests to start a new conversation.
func (h *SessionHandlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	conv := h.sessions.Create()
	httputil.RespondJSON(w, http.StatusCreated, models.SessionResponse{
		ID:       conv.ID,
		Messages: conv.Messages(),
	})
}

// HandleGetSession handles requests to fetch a conversation and its full
// message sequence.
func (h *SessionHandlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.SessionResponse{
		ID:       conv.ID,
		Messages: conv.Messages(),
	})
}

// HandleAddMessage handles one user turn: the reply carries the resolved
// agent message, including any proposed action.
func (h *SessionHandlers) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req models.AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	msg, err := conv.Submit(r.Context(), req.Text)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to process message: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, msg)
}

// HandleExecuteAction handles confirmation of a proposed action on a
// message. Re-executing an already-executed action returns its recorded
// result unchanged.
func (h *SessionHandlers) HandleExecuteAction(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	messageIDStr := chi.URLParam(r, "messageID")
	messageID, err := uuid.Parse(messageIDStr)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	msg, err := conv.ExecuteAction(r.Context(), messageID)
	if err != nil {
		if errors.Is(err, agent.ErrMessageNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Message not found")
			return
		}
		if errors.Is(err, agent.ErrNoAction) {
			httputil.RespondError(w, http.StatusBadRequest, "Message has no executable action")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to execute action: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, msg)
}

func (h *SessionHandlers) lookupSession(w http.ResponseWriter, r *http.Request) (*agent.Conversation, bool) {
	sessionIDStr := chi.URLParam(r, "sessionID")
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid session ID")
		return nil, false
	}

	conv, found := h.sessions.Get(sessionID)
	if !found {
		httputil.RespondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return conv, true
}
