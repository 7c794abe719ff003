package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taskpilot-backend/internal/config"
	"taskpilot-backend/internal/handlers"
	"taskpilot-backend/pkg/httputil"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler    *handlers.AuthHandlers
	AgentHandler   *handlers.AgentHandlers
	SessionHandler *handlers.SessionHandlers
	Config         *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.Config.RequestTimeout))

	// --- CORS Configuration ---
	// Adjust AllowedOrigins for your frontend deployment(s)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.vercel.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes ---
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{
			"service": "taskpilot-backend",
			"status":  "running",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/token", deps.AuthHandler.HandleIssueToken)
	})

	// --- Authenticated Routes ---
	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(deps.Config.AgentSecret))

		if deps.AgentHandler == nil {
			panic("AgentHandler dependency is nil in router setup")
		}
		r.Post("/agent", deps.AgentHandler.HandleProcessInput)
		r.Get("/tasks", deps.AgentHandler.HandleListTasks)
		r.Get("/v1/logs", deps.AgentHandler.HandleListLogs)

		if deps.SessionHandler == nil {
			panic("SessionHandler dependency is nil in router setup")
		}
		r.Route("/v1/sessions", func(r chi.Router) {
			r.Post("/", deps.SessionHandler.HandleCreateSession)
			r.Get("/{sessionID}", deps.SessionHandler.HandleGetSession)
			r.Post("/{sessionID}/messages", deps.SessionHandler.HandleAddMessage)
			r.Post("/{sessionID}/messages/{messageID}/execute", deps.SessionHandler.HandleExecuteAction)
		})
	})

	return r
}
