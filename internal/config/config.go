package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment
// variables. Integration tokens are optional: a missing token disables that
// target service and execution against it fails with a configuration error
// before any network call.
type Config struct {
	HTTPPort        string
	AgentSecret     string // shared secret for the bearer-auth surface, also signs client tokens
	TokenExpiration time.Duration

	LLMProvider    string // "gemini" or "ollama"
	GeminiAPIKey   string
	GeminiModel    string
	OllamaEndpoint string
	OllamaModel    string

	TodoistAPIKey       string
	SlackBotToken       string
	SlackDefaultChannel string
	NotionAPIKey        string
	NotionParentPageID  string

	DatabaseURL string // optional; enables the fire-and-forget agent log store

	RequestTimeout time.Duration // applied to model and upstream calls
	SessionMaxAge  time.Duration // idle conversations older than this are dropped
}

// LoadConfig loads configuration from environment variables. It looks for a
// .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	agentSecret := getEnv("AGENT_SECRET", "")
	if agentSecret == "" {
		log.Fatal("FATAL: AGENT_SECRET environment variable is not set.")
	}

	tokenExpStr := getEnv("TOKEN_EXPIRATION_HOURS", "24")
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid TOKEN_EXPIRATION_HOURS '%s', using default 24h. Error: %v", tokenExpStr, err)
		tokenExpHours = 24
	}

	requestTimeoutStr := getEnv("REQUEST_TIMEOUT_SECONDS", "60")
	requestTimeoutSecs, err := strconv.Atoi(requestTimeoutStr)
	if err != nil || requestTimeoutSecs <= 0 {
		log.Printf("Warning: Invalid REQUEST_TIMEOUT_SECONDS '%s', using default 60s.", requestTimeoutStr)
		requestTimeoutSecs = 60
	}

	sessionMaxAgeStr := getEnv("SESSION_MAX_AGE_HOURS", "24")
	sessionMaxAgeHours, err := strconv.Atoi(sessionMaxAgeStr)
	if err != nil || sessionMaxAgeHours <= 0 {
		log.Printf("Warning: Invalid SESSION_MAX_AGE_HOURS '%s', using default 24h.", sessionMaxAgeStr)
		sessionMaxAgeHours = 24
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AgentSecret:     agentSecret,
		TokenExpiration: time.Hour * time.Duration(tokenExpHours),

		LLMProvider:    getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaEndpoint: getEnv("OLLAMA_ENDPOINT", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "qwen3"),

		TodoistAPIKey:       getEnv("TODOIST_API_KEY", ""),
		SlackBotToken:       getEnv("SLACK_BOT_TOKEN", ""),
		SlackDefaultChannel: getEnv("SLACK_DEFAULT_CHANNEL", "#general"),
		NotionAPIKey:        getEnv("NOTION_API_KEY", ""),
		NotionParentPageID:  getEnv("NOTION_PARENT_PAGE_ID", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RequestTimeout: time.Duration(requestTimeoutSecs) * time.Second,
		SessionMaxAge:  time.Duration(sessionMaxAgeHours) * time.Hour,
	}

	log.Printf("Loaded config: Port=%s, LLMProvider=%s, TokenExp=%s, RequestTimeout=%s, Todoist=%t, Slack=%t, Notion=%t, DB=%t",
		cfg.HTTPPort, cfg.LLMProvider, cfg.TokenExpiration, cfg.RequestTimeout,
		cfg.TodoistAPIKey != "", cfg.SlackBotToken != "", cfg.NotionAPIKey != "", cfg.DatabaseURL != "")

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
