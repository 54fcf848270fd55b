package model

// ExtractionRecord is the persisted result of one completed WorkItem.
type ExtractionRecord struct {
	RecordID string `yaml:"record_id" json:"record_id"`
	Kind     Kind   `yaml:"kind" json:"kind"`
	Term     string `yaml:"term" json:"term"`
	Query    string `yaml:"query" json:"query"`
	Abstract string `yaml:"abstract" json:"abstract"`
	Response string `yaml:"response" json:"response"`
	SourceID string `yaml:"source_id,omitempty" json:"source_id,omitempty"`
}

// Key returns the (record_id, kind, term) triple.
func (r ExtractionRecord) Key() Key {
	return Key{RecordID: r.RecordID, Kind: r.Kind, Term: r.Term}
}

// GradeRecord is a graded informative outcome.
type GradeRecord struct {
	RecordID string     `yaml:"record_id" json:"record_id"`
	Term     string     `yaml:"term" json:"term"`
	Grade    GradeLabel `yaml:"grade" json:"grade"`
}

// Key returns the (record_id, term) pair.
func (r GradeRecord) Key() Key {
	return Key{RecordID: r.RecordID, Term: r.Term}
}

// Trusted reports whether the grade is one of the known labels.
func (r GradeRecord) Trusted() bool {
	return r.Grade.IsKnown()
}

// ForecastRecord is a grade predicted from the intervention and outcome name
// alone.
type ForecastRecord struct {
	RecordID   string     `yaml:"record_id" json:"record_id"`
	Term       string     `yaml:"term" json:"term"`
	Scratchpad string     `yaml:"scratchpad" json:"scratchpad"`
	Prediction string     `yaml:"prediction" json:"prediction"`
	Grade      GradeLabel `yaml:"grade" json:"grade"`
}

// Key returns the (record_id, term) pair.
func (r ForecastRecord) Key() Key {
	return Key{RecordID: r.RecordID, Term: r.Term}
}

// Trusted reports whether the forecast carries a known grade.
func (r ForecastRecord) Trusted() bool {
	return r.Grade.IsKnown()
}
