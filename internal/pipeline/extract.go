package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/job"
	"github.com/sells-group/evidence-cli/internal/model"
)

// ExtractionTasks wraps work items as runner tasks.
func ExtractionTasks(items []model.WorkItem) []job.Task[model.ExtractionRecord] {
	tasks := make([]job.Task[model.ExtractionRecord], 0, len(items))
	for _, item := range items {
		tasks = append(tasks, job.Task[model.ExtractionRecord]{
			Key:    item.Key(),
			Prompt: item.Prompt,
			Build: func(reply string) model.ExtractionRecord {
				return model.ExtractionRecord{
					RecordID: item.RecordID,
					Kind:     item.Kind,
					Term:     item.Term,
					Query:    item.Prompt,
					Abstract: item.Abstract,
					Response: reply,
					SourceID: item.SourceID,
				}
			},
		})
	}
	return tasks
}

// DetectDrift compares the source ids persisted with existing extractions to
// the ids of the current expansion and returns the record ids whose source
// changed. Records persisted without a source id are not compared.
func DetectDrift(existing []model.ExtractionRecord, current map[string]string) []string {
	seen := make(map[string]bool)
	var drifted []string
	for _, rec := range existing {
		if rec.SourceID == "" || seen[rec.RecordID] {
			continue
		}
		seen[rec.RecordID] = true
		if cur, ok := current[rec.RecordID]; ok && cur != rec.SourceID {
			drifted = append(drifted, rec.RecordID)
		}
	}
	return drifted
}

// Extract runs the extraction stage over the source records at sourcesPath.
func Extract(ctx context.Context, deps Deps, sourcesPath string, store job.Store[model.ExtractionRecord]) (*model.RunSummary, error) {
	entries, err := LoadSources(sourcesPath)
	if err != nil {
		return nil, err
	}

	exp := Expand(entries)
	if drifted := DetectDrift(store.Records(), exp.SourceIDs); len(drifted) > 0 {
		zap.L().Warn("source records moved since the checkpoint was written; positional record ids no longer match",
			zap.Int("mismatched_records", len(drifted)),
			zap.String("first", drifted[0]),
		)
	}

	sum, err := runStage(ctx, deps, model.StageExtract, store, extractSystemPrompt, ExtractionTasks(exp.Items))
	if sum != nil {
		sum.Skipped = exp.Skipped
	}
	return sum, err
}
