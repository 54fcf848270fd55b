package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/config"
	"github.com/sells-group/evidence-cli/internal/cost"
	"github.com/sells-group/evidence-cli/internal/job"
	"github.com/sells-group/evidence-cli/internal/llm"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/pipeline"
	"github.com/sells-group/evidence-cli/internal/resilience"
	"github.com/sells-group/evidence-cli/internal/store"
)

// newGenerator builds the configured text generator. Tests replace it.
var newGenerator = llm.New

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "evidence.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openLedger connects to the run ledger and applies its schema.
func openLedger(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// stageModel returns the model a stage runs with: the per-stage override if
// set, otherwise the provider default.
func stageModel(c *config.Config, stage model.Stage) string {
	var override string
	switch stage {
	case model.StageExtract:
		override = c.Stages.ExtractModel
	case model.StageGrade:
		override = c.Stages.GradeModel
	case model.StageForecast:
		override = c.Stages.ForecastModel
	}
	if override != "" {
		return override
	}
	return llm.DefaultModel(c)
}

// jobConfig builds the runner configuration for one stage from the loaded
// settings.
func jobConfig(c *config.Config, stage model.Stage, limit int) job.Config {
	maxTokens := c.LLM.MaxTokens
	if stage == model.StageForecast && c.Stages.ForecastMaxTokens > 0 {
		maxTokens = c.Stages.ForecastMaxTokens
	}
	return job.Config{
		Stage:      stage,
		Model:      stageModel(c, stage),
		MaxTokens:  maxTokens,
		RetryLimit: c.LLM.RetryLimit,
		RetryDelay: time.Duration(c.LLM.RetryDelayMs) * time.Millisecond,
		CallDelay:  time.Duration(c.LLM.CallDelayMs) * time.Millisecond,
		MaxItems:   limit,
	}
}

// costCalculator returns the default rates with any configured overrides.
func costCalculator(c *config.Config) *cost.Calculator {
	overrides := make(map[string]cost.ModelRate, len(c.Pricing.Models))
	for name, p := range c.Pricing.Models {
		overrides[name] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return cost.NewCalculator(cost.DefaultRates().WithOverrides(overrides))
}

// deadLetter returns a job failure hook that records abandoned items in the
// ledger. Ledger write errors are logged, never returned.
func deadLetter(ctx context.Context, st store.Store, runID string, stage model.Stage) func(job.Failure) {
	return func(f job.Failure) {
		entry := resilience.DLQEntry{
			RunID:     runID,
			Stage:     stage,
			Key:       f.Key,
			Error:     f.Err.Error(),
			ErrorType: resilience.ClassifyError(f.Err),
			Attempts:  f.Attempts,
		}
		if err := st.RecordFailure(context.WithoutCancel(ctx), entry); err != nil {
			zap.L().Warn("failed to record dead letter",
				zap.String("record_id", f.Key.RecordID),
				zap.Error(err),
			)
		}
	}
}

// trackRun wraps one stage invocation in a ledger run: created as running,
// finished as complete, interrupted or failed with whatever summary fn
// returned.
func trackRun(ctx context.Context, st store.Store, stage model.Stage, fn func(ctx context.Context, runID string) (*model.RunSummary, error)) (*model.RunSummary, error) {
	run, err := st.CreateRun(ctx, stage)
	if err != nil {
		return nil, eris.Wrapf(err, "create %s run", stage)
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("stage", string(stage)))
	log.Info("run started")

	sum, runErr := fn(ctx, run.ID)

	status := model.RunStatusComplete
	var msg string
	switch {
	case runErr == nil:
	case ctx.Err() != nil || errors.Is(runErr, context.Canceled):
		status = model.RunStatusInterrupted
		msg = runErr.Error()
	default:
		status = model.RunStatusFailed
		msg = runErr.Error()
	}

	if err := st.FinishRun(context.WithoutCancel(ctx), run.ID, status, sum, msg); err != nil {
		log.Warn("failed to finish run", zap.Error(err))
	}
	log.Info("run finished", zap.String("status", string(status)))
	return sum, runErr
}

// stageRun holds the flags and wiring shared by extract, grade and forecast.
type stageRun[R model.Keyed] struct {
	stage    model.Stage
	input    string
	output   string
	modeName string
	limit    int
	run      func(ctx context.Context, deps pipeline.Deps, input string, out job.Store[R]) (*model.RunSummary, error)
}

// execute opens the stage's checkpoint store and the ledger, builds the
// generator and runs the stage, printing its summary to out.
func (s stageRun[R]) execute(ctx context.Context, out io.Writer) error {
	if err := cfg.Validate("llm"); err != nil {
		return err
	}

	mode, err := checkpoint.ParseMode(s.modeName)
	if err != nil {
		return err
	}
	records, err := checkpoint.Open[R](s.output, mode, cfg.Checkpoint.Fsync)
	if err != nil {
		return err
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	st, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	sum, err := trackRun(ctx, st, s.stage, func(ctx context.Context, runID string) (*model.RunSummary, error) {
		jc := jobConfig(cfg, s.stage, s.limit)
		jc.OnFailure = deadLetter(ctx, st, runID, s.stage)
		deps := pipeline.Deps{Gen: gen, Costs: costCalculator(cfg), Job: jc}
		return s.run(ctx, deps, s.input, records)
	})
	if sum != nil {
		formatSummary(out, sum)
	}
	return err
}

// formatSummary writes a stage summary table to w.
func formatSummary(out io.Writer, sum *model.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Stage:\t%s\n", sum.Stage)
	_, _ = fmt.Fprintf(w, "Total items:\t%d\n", sum.Total)
	_, _ = fmt.Fprintf(w, "Already done:\t%d\n", sum.AlreadyDone)
	_, _ = fmt.Fprintf(w, "Duplicates:\t%d\n", sum.Duplicates)
	if sum.Skipped > 0 {
		_, _ = fmt.Fprintf(w, "Skipped records:\t%d\n", sum.Skipped)
	}
	_, _ = fmt.Fprintf(w, "Submitted:\t%d\n", sum.Submitted)
	_, _ = fmt.Fprintf(w, "Completed:\t%d\n", sum.Completed)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", sum.Failed)
	_, _ = fmt.Fprintf(w, "Warnings:\t%d\n", sum.Warnings)
	if sum.InputTokens > 0 || sum.OutputTokens > 0 {
		_, _ = fmt.Fprintf(w, "Tokens:\t%d in / %d out\n", sum.InputTokens, sum.OutputTokens)
		_, _ = fmt.Fprintf(w, "Est. cost:\t$%.4f\n", sum.Cost)
	}
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", (time.Duration(sum.DurationMs) * time.Millisecond).Round(time.Millisecond))
	_ = w.Flush()
}
