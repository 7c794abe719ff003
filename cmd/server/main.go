package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/api"
	"taskpilot-backend/internal/config"
	"taskpilot-backend/internal/handlers"
	"taskpilot-backend/internal/integrations"
	"taskpilot-backend/internal/integrations/todoist"
	"taskpilot-backend/internal/llm"
	"taskpilot-backend/internal/services"
	"taskpilot-backend/internal/store"
	"taskpilot-backend/internal/store/postgres"
)

const sessionCleanupInterval = 10 * time.Minute

func main() {
	log.Println("Starting TaskPilot Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize LLM Client
	model, err := llm.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize LLM client: %v", err)
	}
	log.Printf("LLM client initialized (provider=%s).", cfg.LLMProvider)

	// 3. Initialize Integrations & Handler Registry
	todoistClient := todoist.NewClient(cfg.TodoistAPIKey, cfg.RequestTimeout)
	todoistAdapter := todoist.NewAdapter(todoistClient)
	slackIntegration := integrations.NewSlackIntegration(cfg.SlackBotToken, cfg.SlackDefaultChannel)
	notionIntegration := integrations.NewNotionIntegration(cfg.NotionAPIKey, cfg.NotionParentPageID)

	registry := integrations.BuildRegistry(todoistAdapter, slackIntegration, notionIntegration)
	if err := registry.Validate(); err != nil {
		log.Fatalf("FATAL: Handler registry validation failed: %v", err)
	}
	router := agent.NewRouter(registry)
	gate := integrations.NewCredentialGate(cfg)
	log.Println("Handler registry validated.")

	// 4. Initialize Session Store
	sessions := agent.NewSessionStore(cfg.SessionMaxAge, sessionCleanupInterval, func() *agent.Conversation {
		return agent.NewConversation(model, router, gate)
	})
	log.Println("Session store initialized.")

	// 5. Initialize Optional Log Store
	var logStore store.Store
	if cfg.DatabaseURL != "" {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			dbCancel()
			log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
		}
		if err := dbpool.Ping(dbCtx); err != nil {
			dbCancel()
			log.Fatalf("FATAL: Unable to ping database: %v\n", err)
		}
		dbCancel()
		defer dbpool.Close()
		logStore = postgres.NewPostgresStore(dbpool)
		log.Println("Postgres agent log store initialized.")
	} else {
		log.Println("DATABASE_URL not set, agent logs will not be persisted.")
	}

	// 6. Initialize Services & Handlers
	agentService := services.NewAgentService(model, router, gate, todoistClient, logStore)
	log.Println("AgentService initialized.")

	authHandler := handlers.NewAuthHandlers(cfg.AgentSecret, cfg.TokenExpiration)
	agentHandler := handlers.NewAgentHandlers(agentService)
	sessionHandler := handlers.NewSessionHandlers(sessions)

	// 7. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		AuthHandler:    authHandler,
		AgentHandler:   agentHandler,
		SessionHandler: sessionHandler,
		Config:         cfg,
	}
	httpRouter := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 8. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: httpRouter,
		// Production hardening: Set timeouts to avoid Slowloris attacks
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
