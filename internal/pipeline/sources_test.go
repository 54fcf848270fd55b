package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
)

func TestParseSources_KeepsPositions(t *testing.T) {
	data := []byte(`
- id: 101
  title: First
  year_of_publication: 2019
  abstract: A study.
  outcome: [health]
- null
- id: "103"
  abstract: Another study.
  year_of_publication: "2020"
  interventions: [Cash transfers]
  region: East Africa
`)
	entries, err := ParseSources(data)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Index)
	require.NotNil(t, entries[0].Record)
	assert.Equal(t, "101", entries[0].Record.SourceID())
	assert.Equal(t, []string{"health"}, entries[0].Record.Outcomes)

	assert.Equal(t, 2, entries[1].Index)
	assert.Nil(t, entries[1].Record)

	require.NotNil(t, entries[2].Record)
	assert.Equal(t, "103", entries[2].Record.SourceID())
	year, ok := entries[2].Record.Year()
	assert.True(t, ok)
	assert.Equal(t, 2020, year)
	assert.Equal(t, "East Africa", entries[2].Record.Extra["region"])
}

func TestParseSources_Empty(t *testing.T) {
	entries, err := ParseSources([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseSources_NotASequence(t *testing.T) {
	_, err := ParseSources([]byte("id: 1\n"))
	assert.Error(t, err)
}

func TestLoadSources_Missing(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "records.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestLoadSources_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- abstract: x\n  year_of_publication: 2001\n"), 0o644))

	entries, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotNil(t, entries[0].Record)
}
