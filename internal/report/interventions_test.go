package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
)

func TestInterventions_ExtractionRows(t *testing.T) {
	rows := []map[string]any{
		{"record_id": "R00001", "kind": "intervention", "abstract": " An abstract. ", "response": "Cash transfers."},
		{"record_id": "R00001", "kind": "outcome", "term": "health", "response": "x"},
	}
	got, err := Interventions(rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, InterventionEntry{
		ID:           "R00001",
		Title:        "-",
		Year:         "-",
		Abstract:     "An abstract.",
		Intervention: "Cash transfers.",
	}, got[0])
}

func TestInterventions_SourceRows(t *testing.T) {
	rows := []map[string]any{
		{"id": 12, "title": "T", "year_of_publication": 2019, "abstract": "A.", "interventions": []any{"Cash", "Training"}},
		{"id": 13, "interventions": []any{}},
	}
	got, err := Interventions(rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12", got[0].ID)
	assert.Equal(t, "2019", got[0].Year)
	assert.Equal(t, "Cash; Training", got[0].Intervention)
}

func TestInterventions_None(t *testing.T) {
	_, err := Interventions([]map[string]any{{"kind": "outcome"}})
	assert.ErrorIs(t, err, ErrNoInterventions)
}

func TestLoadMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a: 1\n- null\n- plain\n- b: two\n"), 0o644))

	rows, err := LoadMappings(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "two", rows[1]["b"])

	_, err = LoadMappings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}
