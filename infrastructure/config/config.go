package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Remote assistant service (search + generation)
	AssistantBaseURL string
	AssistantTimeout time.Duration

	// Search pipeline tuning
	DebounceWindow time.Duration
	CacheTTL       time.Duration
	SearchLimit    int
	MaxChainDepth  int

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Rate limiting
	IPRequestsPerMinute   int
	UserRequestsPerMinute int

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables. In development
// a .env file in the working directory is merged in first.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AssistantBaseURL: getEnv("ASSISTANT_BASE_URL", "http://localhost:3001/api/ai"),
		AssistantTimeout: getEnvDuration("ASSISTANT_TIMEOUT", 30*time.Second),

		DebounceWindow: getEnvDuration("SEARCH_DEBOUNCE_WINDOW", 300*time.Millisecond),
		CacheTTL:       getEnvDuration("SEARCH_CACHE_TTL", 5*time.Minute),
		SearchLimit:    getEnvInt("SEARCH_LIMIT", 10),
		MaxChainDepth:  getEnvInt("MAX_CHAIN_DEPTH", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "cardpilot"),
		JWTAudience: getEnv("JWT_AUDIENCE", "cardpilot-api"),

		IPRequestsPerMinute:   getEnvInt("IP_REQUESTS_PER_MINUTE", 100),
		UserRequestsPerMinute: getEnvInt("USER_REQUESTS_PER_MINUTE", 200),

		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.AssistantBaseURL == "" {
			return fmt.Errorf("ASSISTANT_BASE_URL is required")
		}
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive")
	}
	if c.MaxChainDepth <= 0 {
		return fmt.Errorf("MAX_CHAIN_DEPTH must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
