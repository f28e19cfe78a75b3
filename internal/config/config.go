package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Host        string
	Environment string

	// Database
	DatabasePath string

	// Knowledge base
	KBSeedFile string

	// Retrieval
	RetrieveTopK      int
	EvidenceThreshold float64

	// OpenAI backend
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Tool gateway
	GatewayURL       string
	GatewayTransport string
	GatewayTimeout   time.Duration

	// Security
	APIAuthSecret  string
	APITokenExpiry time.Duration

	// Rate Limiting
	RateLimitRequestsPerMinute int

	// CORS
	CORSAllowedOrigins string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		// Server defaults
		Port:        getEnv("PORT", "8080"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "./data/swarmdesk.db"),

		// Knowledge base
		KBSeedFile: getEnv("KB_SEED_FILE", ""),

		// Retrieval
		RetrieveTopK:      getIntEnv("RETRIEVE_TOP_K", 5),
		EvidenceThreshold: getFloatEnv("EVIDENCE_THRESHOLD", 0.40),

		// OpenAI backend - empty key means fallback-only mode
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAITimeout: getDurationEnv("OPENAI_TIMEOUT", 20*time.Second),

		// Tool gateway - empty URL means the gateway is unconfigured
		GatewayURL:       getEnv("MCP_GATEWAY_URL", ""),
		GatewayTransport: getEnv("MCP_GATEWAY_TRANSPORT", "http"),
		GatewayTimeout:   getDurationEnv("MCP_GATEWAY_TIMEOUT", 12*time.Second),

		// Security - empty secret disables API auth
		APIAuthSecret:  getEnv("API_AUTH_SECRET", ""),
		APITokenExpiry: getDurationEnv("API_TOKEN_EXPIRY", 24*time.Hour),

		// Rate Limiting
		RateLimitRequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),

		// CORS
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
