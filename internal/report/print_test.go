package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvaluation() *Evaluation {
	return &Evaluation{
		N:         2,
		Forecast:  Metrics{RMSE: 0.25, Accuracy: 0.5, Brier: 0.1},
		MacroF1:   0.4,
		ModeGrade: "significant",
		Distribution: []GradeCount{
			{Grade: "no effect", Truth: 1, Forecast: 2},
		},
	}
}

func TestFprintEvaluation(t *testing.T) {
	var buf bytes.Buffer
	FprintEvaluation(&buf, sampleEvaluation())
	out := buf.String()

	assert.Contains(t, out, "N overlap")
	assert.Contains(t, out, "0.2500")
	assert.Contains(t, out, "50.000%")
	assert.Contains(t, out, "most common (significant)")
	assert.Contains(t, out, "no effect")
}

func TestFprintOutcomes(t *testing.T) {
	var buf bytes.Buffer
	FprintOutcomes(&buf, &OutcomeStats{TotalOutcomes: 4, NonInformative: 1, NonInformativeFraction: 0.25, ByTerm: []TermCount{{"health", 3}}})
	assert.Contains(t, buf.String(), "25.00%")
	assert.Contains(t, buf.String(), "health")
}

func TestFprintInterventions_Wraps(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("word ", 40)
	FprintInterventions(&buf, []InterventionEntry{{ID: "R00001", Abstract: long, Intervention: "Cash."}})

	for _, line := range strings.Split(buf.String(), "\n") {
		assert.LessOrEqual(t, len(line), 90)
	}
	assert.Contains(t, buf.String(), "Record ID : R00001")
}

func TestFprintHistogram(t *testing.T) {
	var buf bytes.Buffer
	FprintHistogram(&buf, []int{1, 1, 3})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], strings.Repeat("#", barWidth))
	assert.NotContains(t, lines[1], "#")
}

func TestFprintYearGaps_Empty(t *testing.T) {
	var buf bytes.Buffer
	FprintYearGaps(&buf, &YearGapStats{})
	assert.Contains(t, buf.String(), "No eligible records")
	assert.Contains(t, buf.String(), "No valid year differences found.")
}
