package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"taskpilot-backend/internal/auth"
	"taskpilot-backend/pkg/httputil"
)

// --- Bearer Auth Middleware ---

// BearerAuthMiddleware verifies the Authorization header on protected routes.
// Two credentials are accepted: the shared agent secret itself, or a
// short-lived JWT minted from it via the token endpoint. Anything else is
// rejected with 403.
func BearerAuthMiddleware(agentSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Println("Auth Middleware: Missing Authorization header")
				httputil.RespondError(w, http.StatusForbidden, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Println("Auth Middleware: Malformed Authorization header")
				httputil.RespondError(w, http.StatusForbidden, "Malformed Authorization header (Expected: Bearer <token>)")
				return
			}

			credential := parts[1]

			// Static secret comparison first; constant-time to avoid leaking
			// prefix matches.
			if subtle.ConstantTimeCompare([]byte(credential), []byte(agentSecret)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			if err := auth.ValidateToken(agentSecret, credential); err != nil {
				log.Printf("Auth Middleware: Rejected credential: %v", err)
				httputil.RespondError(w, http.StatusForbidden, "Invalid or expired credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
