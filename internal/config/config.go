package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	configDirName  = "inkwell"
	tokenDBName    = "session.sqlite"
	defaultAPIURL  = "http://localhost:8080"
	defaultWebAddr = "127.0.0.1:5173"
)

// Token storage backends
const (
	TokenBackendKeyring = "keyring"
	TokenBackendSQLite  = "sqlite"
	TokenBackendMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Blog API the client talks to
	API APIConfig

	// Local web UI
	Web WebConfig

	// Where the session token is persisted
	Token TokenConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the REST API connection settings
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// WebConfig holds the local web UI settings
type WebConfig struct {
	Addr           string
	AllowedOrigins []string
}

// TokenConfig selects the token store backend
type TokenConfig struct {
	Backend string // keyring, sqlite, memory
	DBPath  string // only used by the sqlite backend
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := strings.TrimRight(getEnv("INKWELL_API_URL", defaultAPIURL), "/")

	timeout, err := time.ParseDuration(getEnv("INKWELL_API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid INKWELL_API_TIMEOUT: %w", err)
	}
	if timeout < 0 {
		return nil, fmt.Errorf("invalid INKWELL_API_TIMEOUT: must not be negative")
	}

	backend := strings.ToLower(getEnv("INKWELL_TOKEN_BACKEND", TokenBackendKeyring))
	switch backend {
	case TokenBackendKeyring, TokenBackendSQLite, TokenBackendMemory:
	default:
		return nil, fmt.Errorf("invalid INKWELL_TOKEN_BACKEND '%s', must be one of: keyring, sqlite, memory", backend)
	}

	dbPath := os.Getenv("INKWELL_TOKEN_DB")
	if dbPath == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, tokenDBName)
	}

	return &Config{
		API: APIConfig{
			URL:     apiURL,
			Timeout: timeout,
		},
		Web: WebConfig{
			Addr:           getEnv("INKWELL_WEB_ADDR", defaultWebAddr),
			AllowedOrigins: splitList(getEnv("INKWELL_WEB_ORIGINS", "http://localhost:5173")),
		},
		Token: TokenConfig{
			Backend: backend,
			DBPath:  dbPath,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}, nil
}

// DataDir returns ~/.config/inkwell, where local state lives
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
