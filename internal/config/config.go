package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	GatewayREST   = "rest"
	GatewayMemory = "memory"

	SessionFile   = "file"
	SessionSQLite = "sqlite"
	SessionMemory = "memory"
)

type Config struct {
	// Remote API
	APIBaseURL     string
	HTTPTimeout    time.Duration
	GatewayBackend string

	// Session persistence
	SessionBackend string
	SessionFile    string
	SQLiteDBPath   string

	// Suggestions
	SuggestionsDelay     time.Duration
	SuggestionsCacheTTL  time.Duration
	SuggestionsCacheSize int

	// Budget alerts over AMQP; empty URL logs alerts instead
	AMQPURL              string
	AMQPExchange         string
	AMQPQueue            string
	BudgetAlertThreshold float64

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string

	// Dev API server
	Port               string
	CORSOrigins        []string
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		GatewayBackend: getEnv("GATEWAY_BACKEND", GatewayREST),

		SessionBackend: getEnv("SESSION_BACKEND", SessionFile),
		SessionFile:    getEnv("SESSION_FILE", "./data/session.json"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/expensync.db"),

		SuggestionsDelay:     getEnvDuration("SUGGESTIONS_DELAY", time.Second),
		SuggestionsCacheTTL:  getEnvDuration("SUGGESTIONS_CACHE_TTL", 0),
		SuggestionsCacheSize: getEnvInt("SUGGESTIONS_CACHE_SIZE", 16),

		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "expensync"),
		AMQPQueue:            getEnv("AMQP_QUEUE", "budget_alerts"),
		BudgetAlertThreshold: getEnvFloat("BUDGET_ALERT_THRESHOLD", 1.0),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
	}
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validGateways := []string{GatewayREST, GatewayMemory}
	if !slices.Contains(validGateways, c.GatewayBackend) {
		errors = append(errors, fmt.Sprintf("invalid gateway backend '%s': must be one of %v", c.GatewayBackend, validGateways))
	}

	if c.GatewayBackend == GatewayREST {
		if parsed, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
		if c.HTTPTimeout < 0 {
			errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must not be negative", c.HTTPTimeout))
		} else if c.HTTPTimeout > 5*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
		}
	}

	validSessions := []string{SessionFile, SessionSQLite, SessionMemory}
	if !slices.Contains(validSessions, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validSessions))
	}

	switch c.SessionBackend {
	case SessionFile:
		if c.SessionFile == "" {
			errors = append(errors, "session file path cannot be empty when using file session backend")
		}
	case SessionSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite session backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SuggestionsDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid suggestions delay %v: must not be negative", c.SuggestionsDelay))
	} else if c.SuggestionsDelay > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid suggestions delay %v: must be at most 1 minute", c.SuggestionsDelay))
	}
	if c.SuggestionsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid suggestions cache TTL %v: must not be negative", c.SuggestionsCacheTTL))
	}
	if c.SuggestionsCacheTTL > 0 && c.SuggestionsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid suggestions cache size %d: must be at least 1", c.SuggestionsCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BudgetAlertThreshold <= 0 || c.BudgetAlertThreshold > 10 {
		errors = append(errors, fmt.Sprintf("invalid budget alert threshold %g: must be greater than 0 and at most 10", c.BudgetAlertThreshold))
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
