package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/job"
	"github.com/sells-group/evidence-cli/internal/model"
)

// InterventionLookup maps record_id to its intervention description. When a
// record has several intervention extractions the last one wins.
func InterventionLookup(records []model.ExtractionRecord) map[string]string {
	out := make(map[string]string)
	for _, rec := range records {
		if rec.Kind == model.KindIntervention {
			out[rec.RecordID] = rec.Response
		}
	}
	return out
}

func interventionFor(lookup map[string]string, recordID string) string {
	if s, ok := lookup[recordID]; ok {
		return s
	}
	return NoInterventionDescribed
}

// GradeTasks builds one grading task per informative outcome extraction.
func GradeTasks(records []model.ExtractionRecord) []job.Task[model.GradeRecord] {
	lookup := InterventionLookup(records)
	var tasks []job.Task[model.GradeRecord]
	for _, rec := range records {
		if !IsInformative(rec) {
			continue
		}
		tasks = append(tasks, job.Task[model.GradeRecord]{
			Key:    model.Key{RecordID: rec.RecordID, Term: rec.Term},
			Prompt: gradePrompt(interventionFor(lookup, rec.RecordID), strings.TrimSpace(rec.Term), strings.TrimSpace(rec.Response)),
			Build: func(reply string) model.GradeRecord {
				label := model.ParseGradeLabel(reply)
				if !label.IsKnown() {
					zap.L().Warn("unexpected grade, saving anyway",
						zap.String("record_id", rec.RecordID),
						zap.String("term", rec.Term),
						zap.String("grade", label.String()),
					)
				}
				return model.GradeRecord{RecordID: rec.RecordID, Term: rec.Term, Grade: label}
			},
		})
	}
	return tasks
}

// Grade runs the grading stage over the extractions at extractionsPath.
func Grade(ctx context.Context, deps Deps, extractionsPath string, store job.Store[model.GradeRecord]) (*model.RunSummary, error) {
	records, err := checkpoint.LoadRequired[model.ExtractionRecord](extractionsPath)
	if err != nil {
		return nil, err
	}
	return runStage(ctx, deps, model.StageGrade, store, gradeSystemPrompt, GradeTasks(records))
}
