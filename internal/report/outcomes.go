package report

import (
	"sort"
	"strings"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/pipeline"
)

// TermCount is the number of informative responses for one outcome term.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// OutcomeStats summarizes the outcome extractions of a store.
type OutcomeStats struct {
	UniqueRecords          int         `json:"unique_records"`
	TotalOutcomes          int         `json:"total_outcomes"`
	NonInformative         int         `json:"non_informative"`
	NonInformativeFraction float64     `json:"non_informative_fraction"`
	Informative            int         `json:"informative"`
	TermsAtLeast3          int         `json:"terms_at_least_3"`
	ResponsesAtLeast3      int         `json:"responses_at_least_3"`
	ByTerm                 []TermCount `json:"by_term"`
}

// Outcomes counts informative and non-informative outcome extractions.
func Outcomes(records []model.ExtractionRecord) *OutcomeStats {
	st := &OutcomeStats{}
	ids := make(map[string]struct{})
	var terms termCounter

	for _, r := range records {
		if r.Kind != model.KindOutcome {
			continue
		}
		st.TotalOutcomes++
		if r.RecordID != "" {
			ids[r.RecordID] = struct{}{}
		}
		if !pipeline.IsInformative(r) {
			st.NonInformative++
			continue
		}
		st.Informative++
		terms.add(r.Term)
	}

	st.UniqueRecords = len(ids)
	if st.TotalOutcomes > 0 {
		st.NonInformativeFraction = float64(st.NonInformative) / float64(st.TotalOutcomes)
	}
	st.ByTerm = terms.sorted()
	for _, tc := range st.ByTerm {
		if tc.Count >= 3 {
			st.TermsAtLeast3++
			st.ResponsesAtLeast3 += tc.Count
		}
	}
	return st
}

// termCounter counts terms and remembers their first appearance.
type termCounter struct {
	order  []string
	counts map[string]int
}

func (c *termCounter) add(term string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[term]; !ok {
		c.order = append(c.order, term)
	}
	c.counts[term]++
}

// sorted returns counts in descending order, ties in order of first
// appearance.
func (c *termCounter) sorted() []TermCount {
	out := make([]TermCount, len(c.order))
	for i, t := range c.order {
		out[i] = TermCount{Term: t, Count: c.counts[t]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TermGroup is the informative responses recorded for one term.
type TermGroup struct {
	Term    string                   `json:"term"`
	Records []model.ExtractionRecord `json:"records"`
}

// DefaultMinOccurrences is the default threshold of InformativeByTerm.
const DefaultMinOccurrences = 4

// InformativeByTerm groups informative outcome extractions by term, keeping
// terms that occur more than minCount times, most frequent first.
func InformativeByTerm(records []model.ExtractionRecord, minCount int) []TermGroup {
	var terms termCounter
	grouped := make(map[string][]model.ExtractionRecord)
	for _, r := range records {
		if !pipeline.IsInformative(r) {
			continue
		}
		terms.add(r.Term)
		r.Response = strings.TrimSpace(r.Response)
		grouped[r.Term] = append(grouped[r.Term], r)
	}

	var out []TermGroup
	for _, tc := range terms.sorted() {
		if tc.Count <= minCount {
			continue
		}
		out = append(out, TermGroup{Term: tc.Term, Records: grouped[tc.Term]})
	}
	return out
}
