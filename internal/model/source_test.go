package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSourceRecordYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		year   any
		want   int
		wantOK bool
	}{
		{"int", 2019, 2019, true},
		{"string", " 2020 ", 2020, true},
		{"integral float", 2018.0, 2018, true},
		{"fractional float", 2018.5, 0, false},
		{"word", "unknown", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := SourceRecord{YearOfPublication: tt.year}.Year()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceRecordAbstractText(t *testing.T) {
	t.Parallel()

	s, ok := SourceRecord{Abstract: "  An abstract.\n"}.AbstractText()
	assert.True(t, ok)
	assert.Equal(t, "An abstract.", s)

	_, ok = SourceRecord{Abstract: "   "}.AbstractText()
	assert.False(t, ok)

	_, ok = SourceRecord{Abstract: 42}.AbstractText()
	assert.False(t, ok)

	_, ok = SourceRecord{}.AbstractText()
	assert.False(t, ok)
}

func TestSourceRecordKeepsUnknownFields(t *testing.T) {
	t.Parallel()

	doc := `
id: 9321
title: Cash transfers in Kenya
year_of_publication: "2016"
abstract: We study cash.
interventions: [Cash transfers]
outcome: [Consumption, Assets]
sector_name: Social protection
`
	var rec SourceRecord
	require.NoError(t, yaml.Unmarshal([]byte(doc), &rec))
	assert.Equal(t, "9321", rec.SourceID())
	assert.Equal(t, []string{"Consumption", "Assets"}, rec.Outcomes)
	assert.Equal(t, "Social protection", rec.Extra["sector_name"])

	out, err := yaml.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), "sector_name: Social protection")
}

func TestRecordID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "R00007", RecordID(7))
	assert.Equal(t, "R12345", RecordID(12345))
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "R00001/outcome/health", Key{RecordID: "R00001", Kind: KindOutcome, Term: "health"}.String())
	assert.Equal(t, "R00001/health", GradeRecord{RecordID: "R00001", Term: "health"}.Key().String())
}
