package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/model"
)

func truthRec(id, term, grade string) model.GradeRecord {
	return model.GradeRecord{RecordID: id, Term: term, Grade: model.ParseGradeLabel(grade)}
}

func forecastRec(id, term, grade string) model.ForecastRecord {
	return model.ForecastRecord{RecordID: id, Term: term, Grade: model.ParseGradeLabel(grade)}
}

func TestEvaluate_SinglePair(t *testing.T) {
	ev, err := Evaluate(
		[]model.GradeRecord{truthRec("R1", "health", "significant")},
		[]model.ForecastRecord{forecastRec("R1", "health", "no effect")},
		1,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.N)
	assert.Equal(t, 0.0, ev.Forecast.Accuracy)
	assert.InDelta(t, 0.5, ev.Forecast.RMSE, 1e-12)
	// truth is positive (0.75 >= 0.75), forecast scored 0.25.
	assert.InDelta(t, 0.5625, ev.Forecast.Brier, 1e-12)
	assert.Equal(t, "significant", ev.ModeGrade)
	assert.Equal(t, 1.0, ev.Mode.Accuracy)
}

func TestEvaluate_IdenticalSets(t *testing.T) {
	var truth []model.GradeRecord
	var pred []model.ForecastRecord
	for i, g := range model.ScoredGrades() {
		id := model.RecordID(i + 1)
		truth = append(truth, truthRec(id, "t", g.String()))
		pred = append(pred, forecastRec(id, "t", g.String()))
	}

	ev, err := Evaluate(truth, pred, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, ev.N)
	assert.Equal(t, 0.0, ev.Forecast.RMSE)
	assert.Equal(t, 1.0, ev.Forecast.Accuracy)
	assert.InDelta(t, 1.0, ev.MacroF1, 1e-12)
}

func TestEvaluate_ExcludesInvalidPairs(t *testing.T) {
	truth := []model.GradeRecord{
		truthRec("R1", "a", "significant"),
		truthRec("R2", "a", "no information"),
		truthRec("R3", "a", "somewhat"),
		truthRec("R4", "a", "no effect"),
		truthRec("R5", "a", "no effect"),
	}
	pred := []model.ForecastRecord{
		forecastRec("R1", "a", "significant"),
		forecastRec("R2", "a", "significant"),
		forecastRec("R3", "a", "significant"),
		forecastRec("R4", "a", ""),
	}

	ev, err := Evaluate(truth, pred, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.N)
	assert.Equal(t, 1.0, ev.Forecast.Accuracy)

	dist := map[string]GradeCount{}
	for _, d := range ev.Distribution {
		dist[d.Grade] = d
	}
	assert.Equal(t, 2, dist["no effect"].Truth)
	assert.Equal(t, 1, dist["significant"].Truth)
	assert.Equal(t, 3, dist["significant"].Forecast)
	assert.Len(t, ev.Distribution, 5)
}

func TestEvaluate_LastDuplicateWins(t *testing.T) {
	ev, err := Evaluate(
		[]model.GradeRecord{truthRec("R1", "a", "no effect"), truthRec("R1", "a", "significant")},
		[]model.ForecastRecord{forecastRec("R1", "a", "significant")},
		1,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.N)
	assert.Equal(t, 1.0, ev.Forecast.Accuracy)
}

func TestEvaluate_NoOverlap(t *testing.T) {
	_, err := Evaluate(
		[]model.GradeRecord{truthRec("R1", "a", "significant")},
		[]model.ForecastRecord{forecastRec("R2", "a", "significant")},
		1,
	)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestEvaluate_RandomBaselineSeeded(t *testing.T) {
	var truth []model.GradeRecord
	var pred []model.ForecastRecord
	for i := 1; i <= 50; i++ {
		truth = append(truth, truthRec(model.RecordID(i), "t", "significant"))
		pred = append(pred, forecastRec(model.RecordID(i), "t", "no effect"))
	}

	a, err := Evaluate(truth, pred, 42)
	require.NoError(t, err)
	b, err := Evaluate(truth, pred, 42)
	require.NoError(t, err)
	assert.Equal(t, a.Random, b.Random)
	assert.Greater(t, a.Random.RMSE, 0.0)
}

func TestScoreBijection(t *testing.T) {
	want := map[string]float64{
		"very significant":      1.00,
		"significant":           0.75,
		"neutral/mixed results": 0.50,
		"no effect":             0.25,
		"outcome was worsened":  0.00,
	}
	seen := map[float64]bool{}
	for name, score := range want {
		got, ok := model.ParseGradeLabel(name).Score()
		require.True(t, ok, name)
		assert.Equal(t, score, got, name)
		assert.False(t, seen[got])
		seen[got] = true
	}
}

func TestModeGrade_TieGoesToLowerScore(t *testing.T) {
	g := ModeGrade([]model.Grade{model.GradeSignificant, model.GradeNoEffect})
	assert.Equal(t, model.GradeNoEffect, g)

	g = ModeGrade([]model.Grade{model.GradeSignificant, model.GradeSignificant, model.GradeNoEffect})
	assert.Equal(t, model.GradeSignificant, g)
}

func TestMacroF1(t *testing.T) {
	truth := []model.Grade{model.GradeSignificant, model.GradeSignificant, model.GradeNoEffect}
	pred := []model.Grade{model.GradeSignificant, model.GradeNoEffect, model.GradeNoEffect}
	// significant: p=1 r=0.5 f1=2/3; no effect: p=0.5 r=1 f1=2/3; others 0.
	assert.InDelta(t, (2.0/3+2.0/3)/5, MacroF1(truth, pred), 1e-12)
}

func TestRMSE_Empty(t *testing.T) {
	assert.Equal(t, 0.0, RMSE(nil, nil))
	assert.Equal(t, 0.0, Brier(nil, nil))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}
