// Package job runs keyed units of text-generation work against a durable
// checkpoint store, at most once per key.
package job

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/cost"
	"github.com/sells-group/evidence-cli/internal/llm"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/resilience"
)

// Store is the durable output of a stage. Append must have persisted rec
// when it returns nil.
type Store[R any] interface {
	Records() []R
	Append(rec R) error
}

// Config is the fixed configuration of a Runner. Requests are always sent
// at temperature 0.
type Config struct {
	Stage       model.Stage
	Model      string
	MaxTokens  int
	RetryLimit int
	RetryDelay time.Duration
	CallDelay  time.Duration
	// MaxItems caps the number of items submitted in one run. 0 means no cap.
	MaxItems int
	// OnFailure, if set, is called for every abandoned item.
	OnFailure func(Failure)
}

// Failure describes an item abandoned after its retries ran out.
type Failure struct {
	Key      model.Key
	Err      error
	Attempts int
}

// Task is one unit of work: the prompt to submit and how to turn the reply
// into the record to persist.
type Task[R model.Keyed] struct {
	Key    model.Key
	Prompt string
	Build  func(reply string) R
}

// Runner executes tasks against a Generator and persists each result before
// moving to the next one.
type Runner[R model.Keyed] struct {
	cfg   Config
	gen   llm.Generator
	store Store[R]
	costs *cost.Calculator
}

// NewRunner creates a Runner. costs may be nil.
func NewRunner[R model.Keyed](cfg Config, gen llm.Generator, store Store[R], costs *cost.Calculator) *Runner[R] {
	return &Runner[R]{cfg: cfg, gen: gen, store: store, costs: costs}
}

type trusted interface {
	Trusted() bool
}

// Run submits every task whose key is not yet in the store. Item failures are
// logged and reported through OnFailure; the returned error is non-nil only
// when the store cannot be written or ctx is done. The summary is always
// returned.
func (r *Runner[R]) Run(ctx context.Context, system string, tasks []Task[R]) (*model.RunSummary, error) {
	start := time.Now()
	sum := &model.RunSummary{Stage: r.cfg.Stage, Total: len(tasks)}
	defer func() { sum.DurationMs = time.Since(start).Milliseconds() }()

	done := make(map[model.Key]bool, len(r.store.Records()))
	for _, rec := range r.store.Records() {
		done[rec.Key()] = true
	}
	seen := make(map[model.Key]bool, len(tasks))

	log := zap.L().With(zap.String("stage", string(r.cfg.Stage)))

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "job: interrupted")
		}

		dup := seen[task.Key]
		seen[task.Key] = true
		if done[task.Key] {
			if dup {
				sum.Duplicates++
			} else {
				sum.AlreadyDone++
			}
			continue
		}

		if r.cfg.MaxItems > 0 && sum.Submitted >= r.cfg.MaxItems {
			log.Info("item limit reached", zap.Int("limit", r.cfg.MaxItems), zap.Int("remaining", len(tasks)-i))
			break
		}
		sum.Submitted++

		comp, attempts, err := r.generate(ctx, system, task)
		if err != nil {
			if ctx.Err() != nil {
				return sum, eris.Wrap(ctx.Err(), "job: interrupted")
			}
			sum.Failed++
			log.Error("abandoning item after retries",
				zap.String("record_id", task.Key.RecordID),
				zap.String("kind", string(task.Key.Kind)),
				zap.String("term", task.Key.Term),
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
			if r.cfg.OnFailure != nil {
				r.cfg.OnFailure(Failure{Key: task.Key, Err: err, Attempts: attempts})
			}
			continue
		}

		callCost := r.costs.Tokens(comp.Model, comp.InputTokens, comp.OutputTokens)
		sum.InputTokens += comp.InputTokens
		sum.OutputTokens += comp.OutputTokens
		sum.Cost += callCost
		log.Debug("cost attribution",
			zap.String("key", task.Key.String()),
			zap.String("model", comp.Model),
			zap.Int64("input_tokens", comp.InputTokens),
			zap.Int64("output_tokens", comp.OutputTokens),
			zap.Float64("estimated_cost_usd", callCost),
		)

		rec := task.Build(comp.Text)
		if err := r.store.Append(rec); err != nil {
			return sum, eris.Wrapf(err, "job: persist %s", task.Key)
		}
		done[task.Key] = true
		sum.Completed++

		if t, ok := any(rec).(trusted); ok && !t.Trusted() {
			sum.Warnings++
		}

		if i < len(tasks)-1 {
			if err := resilience.Sleep(ctx, r.cfg.CallDelay); err != nil {
				return sum, eris.Wrap(err, "job: interrupted")
			}
		}
	}

	log.Info("stage finished",
		zap.Int("submitted", sum.Submitted),
		zap.Int("completed", sum.Completed),
		zap.Int("already_done", sum.AlreadyDone),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("failed", sum.Failed),
		zap.Int("warnings", sum.Warnings),
	)
	return sum, nil
}

func (r *Runner[R]) generate(ctx context.Context, system string, task Task[R]) (*llm.Completion, int, error) {
	retry := resilience.FixedRetryConfig(r.cfg.RetryLimit, r.cfg.RetryDelay)
	retry.OnRetry = resilience.RetryLogger("llm", string(r.cfg.Stage), zap.String("key", task.Key.String()))

	var attempts int
	comp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*llm.Completion, error) {
		attempts++
		return r.gen.Generate(ctx, llm.Request{
			System:    system,
			Prompt:    task.Prompt,
			Model:     r.cfg.Model,
			MaxTokens: r.cfg.MaxTokens,
		})
	})
	return comp, attempts, err
}
