package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SourceRecord is one evaluated publication as returned by the evidence portal.
// Year and abstract are kept loosely typed because scraped records are not
// guaranteed to carry them in the expected shape; use Year and AbstractText to
// read them.
type SourceRecord struct {
	ID                any            `yaml:"id,omitempty" json:"id,omitempty"`
	Title             string         `yaml:"title,omitempty" json:"title,omitempty"`
	YearOfPublication any            `yaml:"year_of_publication,omitempty" json:"year_of_publication,omitempty"`
	Abstract          any            `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Interventions     []string       `yaml:"interventions,omitempty" json:"interventions,omitempty"`
	Outcomes          []string       `yaml:"outcome,omitempty" json:"outcome,omitempty"`
	Extra             map[string]any `yaml:",inline" json:"-"`
}

// SourceID returns the portal's own identifier as a string, or "" if absent.
func (r SourceRecord) SourceID() string {
	switch v := r.ID.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// AbstractText returns the trimmed abstract. ok is false when the abstract is
// missing, not a string, or blank.
func (r SourceRecord) AbstractText() (string, bool) {
	s, isString := r.Abstract.(string)
	if !isString {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Year returns the publication year when it can be read as an integer.
func (r SourceRecord) Year() (int, bool) {
	switch v := r.YearOfPublication.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// SourceEntry is a SourceRecord together with its 1-based position in the
// input file. Record is nil when the entry at that position was not a mapping
// (for example a null left behind by a failed fetch); the position still
// counts toward record identifiers.
type SourceEntry struct {
	Index  int
	Record *SourceRecord
}
