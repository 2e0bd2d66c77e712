package backend

import (
	"context"

	"expensync/internal/alerts"
	"expensync/internal/gateway"
	"expensync/internal/session"
	"expensync/internal/sheets"
)

// CleanupFunc releases resources held by a Result.
type CleanupFunc func() error

// Result holds everything a store and its collaborators need.
type Result struct {
	Gateway   gateway.Gateway
	Session   session.Store
	Publisher alerts.Publisher
	Exporter  sheets.ExpenseExporter
	Cleanup   CleanupFunc
}

// Factory builds a Result from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// GatewayType selects where remote calls go.
type GatewayType string

const (
	RESTGateway   GatewayType = "rest"
	MemoryGateway GatewayType = "memory"
)

func (t GatewayType) String() string {
	return string(t)
}

func (t GatewayType) IsValid() bool {
	switch t {
	case RESTGateway, MemoryGateway:
		return true
	default:
		return false
	}
}

// SessionType selects where the session user is persisted.
type SessionType string

const (
	FileSession   SessionType = "file"
	SQLiteSession SessionType = "sqlite"
	MemorySession SessionType = "memory"
)

func (t SessionType) String() string {
	return string(t)
}

func (t SessionType) IsValid() bool {
	switch t {
	case FileSession, SQLiteSession, MemorySession:
		return true
	default:
		return false
	}
}
