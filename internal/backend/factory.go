package backend

import (
	"context"
	"errors"
	"fmt"

	"expensync/internal/alerts"
	"expensync/internal/amqp"
	"expensync/internal/gateway"
	"expensync/internal/gateway/memory"
	"expensync/internal/gateway/rest"
	"expensync/internal/log"
	"expensync/internal/session"
	"expensync/internal/sheets"
	gsheet "expensync/internal/sheets/google"
	memsheet "expensync/internal/sheets/memory"
	"expensync/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create implements Factory.Create. Optional collaborators (AMQP, Sheets)
// fall back to local implementations when they cannot be initialized.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	backend, err := f.createBackend(config)
	if err != nil {
		return nil, err
	}

	sessStore, closeSession, err := f.createSession(config)
	if err != nil {
		return nil, err
	}
	if closeSession != nil {
		cleanups = append(cleanups, closeSession)
	}

	publisher, closePublisher := f.createPublisher(config)
	if closePublisher != nil {
		cleanups = append(cleanups, closePublisher)
	}

	return &Result{
		Gateway:   gateway.WithSuggestions(backend, f.createSuggestions(config)),
		Session:   sessStore,
		Publisher: publisher,
		Exporter:  f.createExporter(ctx, config),
		Cleanup:   cleanup,
	}, nil
}

func (f *DefaultFactory) createBackend(config Config) (gateway.Backend, error) {
	switch config.Gateway {
	case RESTGateway:
		client, err := rest.New(config.APIBaseURL, rest.NewHTTPClient(config.HTTPTimeout), f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize REST gateway: %w", err)
		}
		f.logger.Info("Initialized REST gateway", "base_url", config.APIBaseURL, "timeout", config.HTTPTimeout)
		return client, nil
	case MemoryGateway:
		f.logger.Info("Initialized memory gateway")
		return memory.New(config.BcryptCost), nil
	default:
		return nil, fmt.Errorf("unsupported gateway type: %s", config.Gateway)
	}
}

func (f *DefaultFactory) createSuggestions(config Config) gateway.SuggestionLister {
	var lister gateway.SuggestionLister = gateway.Placeholder{Delay: config.SuggestionsDelay}
	if config.SuggestionsCacheTTL > 0 {
		lister = gateway.NewCachedSuggestions(lister, config.SuggestionsCacheSize, config.SuggestionsCacheTTL)
	}
	return lister
}

func (f *DefaultFactory) createSession(config Config) (session.Store, CleanupFunc, error) {
	switch config.Session {
	case FileSession:
		f.logger.Info("Using file session", "path", config.SessionFile)
		return session.NewFileStore(config.SessionFile), nil, nil
	case SQLiteSession:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Using SQLite session", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil
	case MemorySession:
		return session.NewMemoryStore(nil), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session type: %s", config.Session)
	}
}

func (f *DefaultFactory) createPublisher(config Config) (alerts.Publisher, CleanupFunc) {
	fallback := alerts.LogPublisher{Logger: f.logger.WithComponent(log.ComponentAlerts)}
	if config.AMQPURL == "" {
		return fallback, nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, logging alerts instead", log.FieldError, err)
		return fallback, nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	return client, client.Close
}

func (f *DefaultFactory) createExporter(ctx context.Context, config Config) sheets.ExpenseExporter {
	if config.GoogleSpreadsheetID == "" {
		return memsheet.New()
	}
	ex, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize Google Sheets exporter, exporting to memory", log.FieldError, err)
		return memsheet.New()
	}
	f.logger.Info("Initialized Google Sheets exporter", "sheet", ex.SheetName())
	return ex
}
