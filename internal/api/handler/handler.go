package handler

import (
	"context"
	"log/slog"

	"github.com/rollcall-hq/constituent-export/internal/api/auth"
	"github.com/rollcall-hq/constituent-export/internal/export"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	DB           HealthChecker
	Jobs         export.JobStore
	Orchestrator *export.Orchestrator
	Sessions     auth.SessionProvider
	Authorizer   auth.Authorizer
}

// ExportHandler handles export-related HTTP requests
type ExportHandler struct {
	logger       *slog.Logger
	jobs         export.JobStore
	orchestrator *export.Orchestrator
}

// NewExportHandler creates a new ExportHandler instance
func NewExportHandler(deps *Dependencies) *ExportHandler {
	return &ExportHandler{
		logger:       deps.Logger,
		jobs:         deps.Jobs,
		orchestrator: deps.Orchestrator,
	}
}
