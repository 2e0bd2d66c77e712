package backend

import (
	"errors"
	"fmt"
	"time"

	"expensync/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Gateway     GatewayType
	APIBaseURL  string
	HTTPTimeout time.Duration

	SuggestionsDelay     time.Duration
	SuggestionsCacheTTL  time.Duration
	SuggestionsCacheSize int

	Session      SessionType
	SessionFile  string
	SQLiteDBPath string

	// Optional: empty URL logs alerts instead of publishing them.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional: empty spreadsheet id exports to memory.
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// bcrypt cost for the memory gateway; zero uses the default.
	BcryptCost int
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	gw := GatewayType(appConfig.GatewayBackend)
	if !gw.IsValid() {
		return Config{}, fmt.Errorf("invalid gateway type in config: %s", appConfig.GatewayBackend)
	}
	sess := SessionType(appConfig.SessionBackend)
	if !sess.IsValid() {
		return Config{}, fmt.Errorf("invalid session type in config: %s", appConfig.SessionBackend)
	}

	return Config{
		Gateway:     gw,
		APIBaseURL:  appConfig.APIBaseURL,
		HTTPTimeout: appConfig.HTTPTimeout,

		SuggestionsDelay:     appConfig.SuggestionsDelay,
		SuggestionsCacheTTL:  appConfig.SuggestionsCacheTTL,
		SuggestionsCacheSize: appConfig.SuggestionsCacheSize,

		Session:      sess,
		SessionFile:  appConfig.SessionFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Gateway.IsValid() {
		return fmt.Errorf("invalid gateway type: %s", c.Gateway)
	}
	if !c.Session.IsValid() {
		return fmt.Errorf("invalid session type: %s", c.Session)
	}

	if c.Gateway == RESTGateway && c.APIBaseURL == "" {
		return errors.New("API base URL is required for rest gateway")
	}

	switch c.Session {
	case FileSession:
		if c.SessionFile == "" {
			return errors.New("session file path is required for file session")
		}
	case SQLiteSession:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite session")
		}
	case MemorySession:
		// nothing to check
	}

	if c.SuggestionsCacheTTL > 0 && c.SuggestionsCacheSize < 1 {
		return fmt.Errorf("suggestions cache size must be at least 1, got %d", c.SuggestionsCacheSize)
	}
	return nil
}

// GatewayTypeStrings returns all valid gateway type strings
func GatewayTypeStrings() []string {
	return []string{RESTGateway.String(), MemoryGateway.String()}
}

// SessionTypeStrings returns all valid session type strings
func SessionTypeStrings() []string {
	return []string{FileSession.String(), SQLiteSession.String(), MemorySession.String()}
}
