// Package pipeline builds the extraction, grading and forecasting stages on
// top of the checkpointed job runner.
package pipeline

import (
	"context"

	"github.com/sells-group/evidence-cli/internal/cost"
	"github.com/sells-group/evidence-cli/internal/job"
	"github.com/sells-group/evidence-cli/internal/llm"
	"github.com/sells-group/evidence-cli/internal/model"
)

// Deps holds what every stage needs to run.
type Deps struct {
	Gen   llm.Generator
	Costs *cost.Calculator
	Job   job.Config
}

func runStage[R model.Keyed](ctx context.Context, deps Deps, stage model.Stage, store job.Store[R], system string, tasks []job.Task[R]) (*model.RunSummary, error) {
	cfg := deps.Job
	cfg.Stage = stage
	return job.NewRunner(cfg, deps.Gen, store, deps.Costs).Run(ctx, system, tasks)
}
