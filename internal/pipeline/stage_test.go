package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/model"
)

const sourcesYAML = `- id: 11
  year_of_publication: 2018
  abstract: Cash transfers raised consumption in Kenya.
  outcome: [consumption, health, consumption]
  interventions: [Cash transfers]
- id: 12
  year_of_publication: 2019
  abstract: ""
  outcome: [income]
- id: 13
  year_of_publication: 2020
  abstract: Deworming in schools.
  outcome: [attendance]
  interventions: [Deworming]
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestExtract_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "records.yaml", sourcesYAML)
	outPath := filepath.Join(dir, "extractions.yaml")

	gen := (&scriptedGenerator{fallback: "No Information."}).
		on(`"consumption" outcome`, "Consumption rose 8%.").
		on("What is the intervention", "Monthly cash transfers.")

	store := openStore[model.ExtractionRecord](t, outPath, checkpoint.ModeRewrite)
	sum, err := Extract(context.Background(), testDeps(gen), src, store)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 5, sum.Completed)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, model.StageExtract, sum.Stage)

	persisted, err := checkpoint.LoadRequired[model.ExtractionRecord](outPath)
	require.NoError(t, err)
	require.Len(t, persisted, 5)

	keys := make([]string, len(persisted))
	for i, r := range persisted {
		keys[i] = r.Key().String()
	}
	assert.Equal(t, []string{
		"R00001/outcome/consumption",
		"R00001/outcome/health",
		"R00001/intervention/intervention",
		"R00003/outcome/attendance",
		"R00003/intervention/intervention",
	}, keys)
	assert.Equal(t, "11", persisted[0].SourceID)
	assert.Equal(t, "Cash transfers raised consumption in Kenya.", persisted[0].Abstract)
	assert.Equal(t, "Consumption rose 8%.", persisted[0].Response)
	assert.Contains(t, persisted[0].Query, "Cash transfers raised consumption in Kenya.")

	// Second run is a no-op.
	before := len(gen.prompts())
	store2 := openStore[model.ExtractionRecord](t, outPath, checkpoint.ModeRewrite)
	sum2, err := Extract(context.Background(), testDeps(gen), src, store2)
	require.NoError(t, err)
	assert.Equal(t, 0, sum2.Completed)
	assert.Equal(t, len(gen.prompts()), before)
	assert.Equal(t, 5, store2.Len())
}

func TestExtract_MissingSources(t *testing.T) {
	dir := t.TempDir()
	store := openStore[model.ExtractionRecord](t, filepath.Join(dir, "out.yaml"), checkpoint.ModeAppend)
	_, err := Extract(context.Background(), testDeps(&scriptedGenerator{}), filepath.Join(dir, "nope.yaml"), store)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestExtract_FailedItemStaysPending(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "records.yaml", sourcesYAML)
	outPath := filepath.Join(dir, "extractions.yaml")

	gen := (&scriptedGenerator{fallback: "ok"}).fail(`"health" outcome`, errors.New("503"))
	store := openStore[model.ExtractionRecord](t, outPath, checkpoint.ModeAppend)
	sum, err := Extract(context.Background(), testDeps(gen), src, store)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 4, sum.Completed)

	for _, r := range store.Records() {
		assert.NotEqual(t, "health", r.Term)
	}

	retry := &scriptedGenerator{fallback: "recovered"}
	store2 := openStore[model.ExtractionRecord](t, outPath, checkpoint.ModeAppend)
	sum2, err := Extract(context.Background(), testDeps(retry), src, store2)
	require.NoError(t, err)
	assert.Equal(t, 1, sum2.Completed)
	require.Len(t, retry.prompts(), 1)
	assert.Contains(t, retry.prompts()[0], `"health" outcome`)
}

func TestDetectDrift(t *testing.T) {
	existing := []model.ExtractionRecord{
		{RecordID: "R00001", SourceID: "11"},
		{RecordID: "R00001", SourceID: "11"},
		{RecordID: "R00002", SourceID: "12"},
		{RecordID: "R00003"},
		{RecordID: "R00004", SourceID: "14"},
	}
	current := map[string]string{"R00001": "11", "R00002": "99", "R00003": "13"}

	assert.Equal(t, []string{"R00002"}, DetectDrift(existing, current))
	assert.Empty(t, DetectDrift(nil, current))
}

var extractions = []model.ExtractionRecord{
	{RecordID: "R00001", Kind: model.KindOutcome, Term: " health ", Response: "  Mortality fell 12%.  "},
	{RecordID: "R00001", Kind: model.KindOutcome, Term: "income", Response: "No information."},
	{RecordID: "R00001", Kind: model.KindIntervention, Term: model.InterventionTerm, Response: "First description."},
	{RecordID: "R00001", Kind: model.KindIntervention, Term: model.InterventionTerm, Response: "Cash grants to mothers."},
	{RecordID: "R00002", Kind: model.KindOutcome, Term: "attendance", Response: "Attendance rose."},
}

func TestInterventionLookup_LastWins(t *testing.T) {
	lookup := InterventionLookup(extractions)
	assert.Equal(t, map[string]string{"R00001": "Cash grants to mothers."}, lookup)
	assert.Equal(t, NoInterventionDescribed, interventionFor(lookup, "R00002"))
}

func TestGradeTasks(t *testing.T) {
	tasks := GradeTasks(extractions)
	require.Len(t, tasks, 2)

	assert.Equal(t, model.Key{RecordID: "R00001", Term: " health "}, tasks[0].Key)
	assert.Contains(t, tasks[0].Prompt, "This is the intervention:\nCash grants to mothers.")
	assert.Contains(t, tasks[0].Prompt, "Specific outcome of the intervention to evaluate:\nhealth\n")
	assert.Contains(t, tasks[0].Prompt, "Impact evaluation:\nMortality fell 12%.\n")

	assert.Contains(t, tasks[1].Prompt, "This is the intervention:\nNo Intervention Described.")

	rec := tasks[0].Build("  Very Significant ")
	assert.True(t, rec.Trusted())
	assert.Equal(t, "very significant", rec.Grade.String())

	odd := tasks[1].Build("Somewhat helpful")
	assert.False(t, odd.Trusted())
	assert.Equal(t, "somewhat helpful", odd.Grade.String())
}

func TestForecastTasks_WithholdResponse(t *testing.T) {
	tasks := ForecastTasks(extractions)
	require.Len(t, tasks, 2)

	assert.Contains(t, tasks[0].Prompt, "Intervention description:\nCash grants to mothers.")
	assert.Contains(t, tasks[0].Prompt, "Outcome to evaluate:\n health \n")
	assert.NotContains(t, tasks[0].Prompt, "Mortality fell")

	rec := tasks[0].Build("Scratchpad thoughts: a\nPrediction: b\nGrade: No effect")
	assert.Equal(t, "a", rec.Scratchpad)
	assert.Equal(t, "b", rec.Prediction)
	assert.Equal(t, "no effect", rec.Grade.String())
	assert.True(t, rec.Trusted())

	missing := tasks[1].Build("Prediction: b")
	assert.True(t, missing.Grade.IsEmpty())
	assert.False(t, missing.Trusted())
}

func TestGradeAndForecast_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	extPath := filepath.Join(dir, "extractions.yaml")
	ext := openStore[model.ExtractionRecord](t, extPath, checkpoint.ModeRewrite)
	for _, r := range extractions {
		require.NoError(t, ext.Append(r))
	}

	grader := (&scriptedGenerator{fallback: "No effect"}).on("Mortality", "Significant")
	grades := openStore[model.GradeRecord](t, filepath.Join(dir, "grades.yaml"), checkpoint.ModeAppend)
	sum, err := Grade(context.Background(), testDeps(grader), extPath, grades)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 0, sum.Warnings)
	assert.Equal(t, model.StageGrade, sum.Stage)

	forecaster := &scriptedGenerator{fallback: "Scratchpad thoughts: x\nPrediction: y\nGrade: maybe"}
	forecasts := openStore[model.ForecastRecord](t, filepath.Join(dir, "forecasts.yaml"), checkpoint.ModeAppend)
	fsum, err := Forecast(context.Background(), testDeps(forecaster), extPath, forecasts)
	require.NoError(t, err)
	assert.Equal(t, 2, fsum.Completed)
	assert.Equal(t, 2, fsum.Warnings)
	assert.Equal(t, model.StageForecast, fsum.Stage)

	loaded, err := checkpoint.LoadRequired[model.ForecastRecord](forecasts.Path())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "maybe", loaded[0].Grade.String())
}

func TestGrade_MissingExtractions(t *testing.T) {
	dir := t.TempDir()
	grades := openStore[model.GradeRecord](t, filepath.Join(dir, "grades.yaml"), checkpoint.ModeAppend)
	_, err := Grade(context.Background(), testDeps(&scriptedGenerator{}), filepath.Join(dir, "missing.yaml"), grades)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}
