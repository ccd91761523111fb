package store

import (
	"context"
	"time"

	"github.com/mkazmier/worklog/internal/models"
)

// Run is one recorded import or export invocation.
type Run struct {
	ID        string
	Kind      string // "summary-export", "summary-import", "log"
	Input     string // query or file the run was driven by
	DryRun    bool
	Created   int
	Updated   int
	Failed    int
	StartedAt time.Time
}

// RunResult is one per-record outcome within a run.
type RunResult struct {
	ID        string
	RunID     string
	IssueKey  string
	WorklogID string
	Operation string
	Success   bool
	Message   string
}

// Store defines the run-history persistence interface.
type Store interface {
	SaveRun(ctx context.Context, run *Run, results []models.SyncResult) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRun(ctx context.Context, id string) (*Run, []*RunResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
