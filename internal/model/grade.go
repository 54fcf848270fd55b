package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Grade is one of the five ordered outcome-impact categories, or the
// GradeNoInformation sentinel.
type Grade int

const (
	GradeWorsened Grade = iota
	GradeNoEffect
	GradeNeutralMixed
	GradeSignificant
	GradeVerySignificant
	GradeNoInformation
)

var gradeNames = [...]string{
	GradeWorsened:        "outcome was worsened",
	GradeNoEffect:        "no effect",
	GradeNeutralMixed:    "neutral/mixed results",
	GradeSignificant:     "significant",
	GradeVerySignificant: "very significant",
	GradeNoInformation:   "no information",
}

// gradeScores holds the numeric score of each assessable grade, at 0.25 spacing.
var gradeScores = [...]float64{
	GradeWorsened:        0.00,
	GradeNoEffect:        0.25,
	GradeNeutralMixed:    0.50,
	GradeSignificant:     0.75,
	GradeVerySignificant: 1.00,
}

func (g Grade) String() string {
	if g < 0 || int(g) >= len(gradeNames) {
		return "unknown"
	}
	return gradeNames[g]
}

// Score returns the grade's numeric score. ok is false for the sentinel.
func (g Grade) Score() (float64, bool) {
	if g < GradeWorsened || g > GradeVerySignificant {
		return 0, false
	}
	return gradeScores[g], true
}

// ScoredGrades returns the five assessable grades in score order.
func ScoredGrades() []Grade {
	return []Grade{GradeWorsened, GradeNoEffect, GradeNeutralMixed, GradeSignificant, GradeVerySignificant}
}

// LookupGrade matches a normalized label against the known grades.
func LookupGrade(s string) (Grade, bool) {
	for i, name := range gradeNames {
		if name == s {
			return Grade(i), true
		}
	}
	return 0, false
}

// NormalizeLabel trims and lower-cases a model-produced label.
func NormalizeLabel(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// GradeLabel is either a known Grade or the raw string the model returned.
// Raw labels are kept rather than coerced so that consumers can tell trusted
// grades from untrusted ones.
type GradeLabel struct {
	grade Grade
	raw   string
	known bool
}

// KnownGrade wraps a known grade.
func KnownGrade(g Grade) GradeLabel {
	return GradeLabel{grade: g, raw: g.String(), known: true}
}

// ParseGradeLabel normalizes s and classifies it as known or raw.
func ParseGradeLabel(s string) GradeLabel {
	norm := NormalizeLabel(s)
	if g, ok := LookupGrade(norm); ok {
		return KnownGrade(g)
	}
	return GradeLabel{raw: norm}
}

// IsKnown reports whether the label is one of the six known grades.
func (l GradeLabel) IsKnown() bool { return l.known }

// IsEmpty reports whether no label was produced at all.
func (l GradeLabel) IsEmpty() bool { return !l.known && l.raw == "" }

// Grade returns the known grade, if any.
func (l GradeLabel) Grade() (Grade, bool) {
	return l.grade, l.known
}

// Score returns the numeric score for labels that are known and assessable.
func (l GradeLabel) Score() (float64, bool) {
	if !l.known {
		return 0, false
	}
	return l.grade.Score()
}

func (l GradeLabel) String() string {
	if l.known {
		return l.grade.String()
	}
	return l.raw
}

func (l GradeLabel) MarshalYAML() (any, error) {
	return l.String(), nil
}

func (l *GradeLabel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*l = ParseGradeLabel(s)
	return nil
}

func (l GradeLabel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *GradeLabel) UnmarshalText(text []byte) error {
	*l = ParseGradeLabel(string(text))
	return nil
}
