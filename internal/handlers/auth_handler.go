package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"taskpilot-backend/internal/auth"
	"taskpilot-backend/internal/models"
	"taskpilot-backend/pkg/httputil"
)

// AuthHandlers handles token minting for UI clients that should not hold
// the long-lived shared secret.
type AuthHandlers struct {
	agentSecret     string
	tokenExpiration time.Duration
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(agentSecret string, tokenExpiration time.Duration) *AuthHandlers {
	return &AuthHandlers{
		agentSecret:     agentSecret,
		tokenExpiration: tokenExpiration,
	}
}

// HandleIssueToken exchanges the shared secret for a short-lived JWT.
func (h *AuthHandlers) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.agentSecret)) != 1 {
		log.Println("[Auth] Token request rejected: wrong secret")
		httputil.RespondError(w, http.StatusForbidden, "Invalid secret")
		return
	}

	token, err := auth.CreateToken(h.agentSecret, h.tokenExpiration)
	if err != nil {
		log.Printf("ERROR [Auth] Failed to mint token: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.tokenExpiration.Seconds()),
	})
}
