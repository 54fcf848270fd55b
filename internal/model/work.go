package model

import "fmt"

// Kind distinguishes the two kinds of extraction work.
type Kind string

const (
	KindOutcome      Kind = "outcome"
	KindIntervention Kind = "intervention"
)

// InterventionTerm is the fixed term used for intervention work items.
const InterventionTerm = "intervention"

// Key is the idempotency key of a unit of checkpointed work. Extraction keys
// use all three parts; grade and forecast keys leave Kind empty.
type Key struct {
	RecordID string `json:"record_id"`
	Kind     Kind   `json:"kind,omitempty"`
	Term     string `json:"term"`
}

func (k Key) String() string {
	if k.Kind == "" {
		return fmt.Sprintf("%s/%s", k.RecordID, k.Term)
	}
	return fmt.Sprintf("%s/%s/%s", k.RecordID, k.Kind, k.Term)
}

// Keyed is implemented by every persisted record type.
type Keyed interface {
	Key() Key
}

// RecordID derives the positional record identifier for the 1-based index of
// a source record in the input sequence.
func RecordID(index int) string {
	return fmt.Sprintf("R%05d", index)
}

// WorkItem is one (record, kind, term) unit of extraction work.
type WorkItem struct {
	RecordID string
	Kind     Kind
	Term     string
	SourceID string
	Abstract string
	Prompt   string
	Response string
}

// Key returns the item's idempotency key.
func (w WorkItem) Key() Key {
	return Key{RecordID: w.RecordID, Kind: w.Kind, Term: w.Term}
}
