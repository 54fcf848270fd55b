// Package store keeps the run ledger: one row per stage invocation and one
// dead-letter entry per abandoned work item. The ledger is an audit trail;
// checkpoint files remain the source of truth for completed work.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/resilience"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Stage        model.Stage     `json:"stage,omitempty"`
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, stage model.Stage) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Dead letters
	RecordFailure(ctx context.Context, entry resilience.DLQEntry) error
	ListFailures(ctx context.Context, filter resilience.DLQFilter) ([]resilience.DLQEntry, error)
	CountFailures(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
