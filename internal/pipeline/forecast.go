package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/job"
	"github.com/sells-group/evidence-cli/internal/model"
)

// ForecastTasks builds one forecasting task per informative outcome
// extraction. The prompt carries the intervention and the outcome name only;
// the extracted response is withheld.
func ForecastTasks(records []model.ExtractionRecord) []job.Task[model.ForecastRecord] {
	lookup := InterventionLookup(records)
	var tasks []job.Task[model.ForecastRecord]
	for _, rec := range records {
		if !IsInformative(rec) {
			continue
		}
		tasks = append(tasks, job.Task[model.ForecastRecord]{
			Key:    model.Key{RecordID: rec.RecordID, Term: rec.Term},
			Prompt: forecastPrompt(interventionFor(lookup, rec.RecordID), rec.Term),
			Build: func(reply string) model.ForecastRecord {
				return buildForecast(rec, reply)
			},
		})
	}
	return tasks
}

func buildForecast(rec model.ExtractionRecord, reply string) model.ForecastRecord {
	parsed := ParseForecastReply(reply)
	fields := []zap.Field{zap.String("record_id", rec.RecordID), zap.String("term", rec.Term)}

	if parsed.Grade == nil {
		zap.L().Warn("forecast reply has no grade section, saving anyway", fields...)
	}
	label := model.ParseGradeLabel(deref(parsed.Grade))
	if parsed.Grade != nil && !label.IsKnown() {
		zap.L().Warn("unexpected grade, saving anyway", append(fields, zap.String("grade", label.String()))...)
	}

	return model.ForecastRecord{
		RecordID:   rec.RecordID,
		Term:       rec.Term,
		Scratchpad: deref(parsed.Scratchpad),
		Prediction: deref(parsed.Prediction),
		Grade:      label,
	}
}

// Forecast runs the forecasting stage over the extractions at extractionsPath.
func Forecast(ctx context.Context, deps Deps, extractionsPath string, store job.Store[model.ForecastRecord]) (*model.RunSummary, error) {
	records, err := checkpoint.LoadRequired[model.ExtractionRecord](extractionsPath)
	if err != nil {
		return nil, err
	}
	return runStage(ctx, deps, model.StageForecast, store, forecastSystemPrompt, ForecastTasks(records))
}
