package pipeline

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/model"
)

// LoadSources reads the scraped records file. Every top-level sequence entry
// keeps its 1-based position, including entries that are not mappings.
func LoadSources(path string) ([]model.SourceEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(checkpoint.ErrNotFound, "pipeline: load sources %s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read sources %s", path)
	}
	return ParseSources(data)
}

// ParseSources decodes a YAML sequence of source records.
func ParseSources(data []byte) ([]model.SourceEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse sources")
	}

	entries := make([]model.SourceEntry, len(nodes))
	for i := range nodes {
		entries[i].Index = i + 1
		if nodes[i].Kind != yaml.MappingNode {
			continue
		}
		var rec model.SourceRecord
		if err := nodes[i].Decode(&rec); err != nil {
			zap.L().Info("skipping malformed source record", zap.Int("index", i+1), zap.Error(err))
			continue
		}
		entries[i].Record = &rec
	}
	return entries, nil
}
