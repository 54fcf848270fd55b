package pipeline

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
)

// ErrSkipRecord marks a source record that cannot produce work items.
var ErrSkipRecord = eris.New("pipeline: skip record")

// Expansion is the result of expanding a sequence of source records.
type Expansion struct {
	Items []model.WorkItem
	// Skipped counts source entries excluded for a missing abstract, a
	// non-integer year or a non-mapping entry.
	Skipped int
	// SourceIDs maps each expanded record_id to the record's own identifier,
	// when it has one.
	SourceIDs map[string]string
}

// Expand turns source entries into extraction work items: one outcome item
// per outcome term, in list order, then one intervention item. Record ids are
// positional over the full input, so a skipped entry leaves a gap.
func Expand(entries []model.SourceEntry) Expansion {
	exp := Expansion{SourceIDs: make(map[string]string)}
	for _, entry := range entries {
		items, err := ExpandRecord(entry)
		if err != nil {
			exp.Skipped++
			zap.L().Info("skipping source record",
				zap.String("record_id", model.RecordID(entry.Index)),
				zap.Error(err),
			)
			continue
		}
		if id := entry.Record.SourceID(); id != "" {
			exp.SourceIDs[model.RecordID(entry.Index)] = id
		}
		exp.Items = append(exp.Items, items...)
	}
	return exp
}

// ExpandRecord produces the work items of a single entry, or an error
// wrapping ErrSkipRecord.
func ExpandRecord(entry model.SourceEntry) ([]model.WorkItem, error) {
	rec := entry.Record
	if rec == nil {
		return nil, eris.Wrap(ErrSkipRecord, "not a mapping")
	}
	abstract, ok := rec.AbstractText()
	if !ok {
		return nil, eris.Wrap(ErrSkipRecord, "missing or empty abstract")
	}
	if _, ok := rec.Year(); !ok {
		return nil, eris.Wrapf(ErrSkipRecord, "year of publication %v is not an integer", rec.YearOfPublication)
	}

	recordID := model.RecordID(entry.Index)
	sourceID := rec.SourceID()
	items := make([]model.WorkItem, 0, len(rec.Outcomes)+1)

	for _, term := range rec.Outcomes {
		items = append(items, model.WorkItem{
			RecordID: recordID,
			Kind:     model.KindOutcome,
			Term:     term,
			SourceID: sourceID,
			Abstract: abstract,
			Prompt:   outcomePrompt(term, abstract),
		})
	}

	items = append(items, model.WorkItem{
		RecordID: recordID,
		Kind:     model.KindIntervention,
		Term:     model.InterventionTerm,
		SourceID: sourceID,
		Abstract: abstract,
		Prompt:   interventionPrompt(strings.Join(rec.Interventions, ", "), abstract),
	})
	return items, nil
}
