// Package report computes read-only statistics over the checkpoint stores.
package report

import (
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/model"
)

// ErrNoOverlap is returned when truth and forecasts share no pair of valid
// grades.
var ErrNoOverlap = eris.New("report: no overlapping records with valid grades")

// Metrics are the error measures of one set of predicted scores.
type Metrics struct {
	RMSE     float64 `json:"rmse"`
	Accuracy float64 `json:"accuracy"`
	Brier    float64 `json:"brier"`
}

// GradeCount is the number of truth and forecast records holding one grade.
type GradeCount struct {
	Grade    string `json:"grade"`
	Truth    int    `json:"truth"`
	Forecast int    `json:"forecast"`
}

// Evaluation compares forecasts against truth grades.
type Evaluation struct {
	N        int     `json:"n"`
	Forecast Metrics `json:"forecast"`
	MacroF1  float64 `json:"macro_f1"`

	ModeGrade string  `json:"mode_grade"`
	Mode      Metrics `json:"mode_baseline"`
	Random    Metrics `json:"random_baseline"`

	Distribution []GradeCount `json:"distribution"`
}

type keyedLabel struct {
	key   model.Key
	label model.GradeLabel
}

// latestByKey keeps the last label written for each key, in order of first
// appearance.
func latestByKey(labels []keyedLabel) []keyedLabel {
	pos := make(map[model.Key]int, len(labels))
	var out []keyedLabel
	for _, l := range labels {
		if i, ok := pos[l.key]; ok {
			out[i].label = l.label
			continue
		}
		pos[l.key] = len(out)
		out = append(out, l)
	}
	return out
}

func gradeLabels(records []model.GradeRecord) []keyedLabel {
	out := make([]keyedLabel, len(records))
	for i, r := range records {
		out[i] = keyedLabel{key: r.Key(), label: r.Grade}
	}
	return latestByKey(out)
}

func forecastLabels(records []model.ForecastRecord) []keyedLabel {
	out := make([]keyedLabel, len(records))
	for i, r := range records {
		out[i] = keyedLabel{key: r.Key(), label: r.Grade}
	}
	return latestByKey(out)
}

func scored(l model.GradeLabel) (model.Grade, bool) {
	g, ok := l.Grade()
	if !ok {
		return 0, false
	}
	_, ok = g.Score()
	return g, ok
}

// Evaluate joins truth and forecasts on (record_id, term). Only pairs where
// both sides hold one of the five scored grades contribute to the metrics.
// seed drives the random baseline.
func Evaluate(truth []model.GradeRecord, forecasts []model.ForecastRecord, seed uint64) (*Evaluation, error) {
	truthLabels := gradeLabels(truth)
	predLabels := forecastLabels(forecasts)

	predByKey := make(map[model.Key]model.GradeLabel, len(predLabels))
	for _, p := range predLabels {
		predByKey[p.key] = p.label
	}

	var yTrue, yPred []model.Grade
	for _, t := range truthLabels {
		tg, ok := scored(t.label)
		if !ok {
			continue
		}
		pl, ok := predByKey[t.key]
		if !ok {
			continue
		}
		pg, ok := scored(pl)
		if !ok {
			continue
		}
		yTrue = append(yTrue, tg)
		yPred = append(yPred, pg)
	}
	if len(yTrue) == 0 {
		return nil, ErrNoOverlap
	}

	ev := &Evaluation{
		N:        len(yTrue),
		Forecast: score(yTrue, yPred),
		MacroF1:  MacroF1(yTrue, yPred),
	}

	mode := ModeGrade(yTrue)
	ev.ModeGrade = mode.String()
	ev.Mode = score(yTrue, repeat(mode, len(yTrue)))

	rng := rand.New(rand.NewPCG(seed, seed))
	grades := model.ScoredGrades()
	random := make([]model.Grade, len(yTrue))
	for i := range random {
		random[i] = grades[rng.IntN(len(grades))]
	}
	ev.Random = score(yTrue, random)

	ev.Distribution = distribution(truthLabels, predLabels)
	return ev, nil
}

func repeat(g model.Grade, n int) []model.Grade {
	out := make([]model.Grade, n)
	for i := range out {
		out[i] = g
	}
	return out
}

func score(yTrue, yPred []model.Grade) Metrics {
	t := scores(yTrue)
	p := scores(yPred)
	return Metrics{RMSE: RMSE(t, p), Accuracy: Accuracy(yTrue, yPred), Brier: Brier(t, p)}
}

func scores(grades []model.Grade) []float64 {
	out := make([]float64, len(grades))
	for i, g := range grades {
		out[i], _ = g.Score()
	}
	return out
}

// RMSE is the root mean squared difference between two equal-length score
// slices. It is 0 for empty input.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		d := pred[i] - truth[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(truth)))
}

// Accuracy is the fraction of exact grade matches.
func Accuracy(truth, pred []model.Grade) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// Brier scores predicted scores against the binary outcome "truth score is
// at least 0.75".
func Brier(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		var outcome float64
		if truth[i] >= 0.75 {
			outcome = 1
		}
		d := pred[i] - outcome
		sum += d * d
	}
	return sum / float64(len(truth))
}

// MacroF1 is the unweighted mean F1 over the five scored grades. A grade
// never predicted nor present contributes 0.
func MacroF1(truth, pred []model.Grade) float64 {
	grades := model.ScoredGrades()
	var total float64
	for _, g := range grades {
		var tp, fp, fn int
		for i := range truth {
			switch {
			case pred[i] == g && truth[i] == g:
				tp++
			case pred[i] == g:
				fp++
			case truth[i] == g:
				fn++
			}
		}
		var precision, recall float64
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}
		if precision+recall > 0 {
			total += 2 * precision * recall / (precision + recall)
		}
	}
	return total / float64(len(grades))
}

// ModeGrade returns the most frequent grade. Ties go to the grade with the
// lower score.
func ModeGrade(grades []model.Grade) model.Grade {
	counts := make(map[model.Grade]int)
	for _, g := range grades {
		counts[g]++
	}
	best, bestN := model.GradeWorsened, -1
	for _, g := range model.ScoredGrades() {
		if counts[g] > bestN {
			best, bestN = g, counts[g]
		}
	}
	return best
}

func distribution(truth, pred []keyedLabel) []GradeCount {
	idx := make(map[model.Grade]int)
	out := make([]GradeCount, 0, len(model.ScoredGrades()))
	for i, g := range model.ScoredGrades() {
		idx[g] = i
		out = append(out, GradeCount{Grade: g.String()})
	}
	for _, l := range truth {
		if g, ok := scored(l.label); ok {
			out[idx[g]].Truth++
		}
	}
	for _, l := range pred {
		if g, ok := scored(l.label); ok {
			out[idx[g]].Forecast++
		}
	}
	return out
}
