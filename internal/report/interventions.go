package report

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
)

// ErrNoInterventions is returned when a file holds no intervention rows.
var ErrNoInterventions = eris.New("report: no intervention records found")

const placeholder = "-"

// InterventionEntry pairs an intervention description with its abstract.
type InterventionEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Year         string `json:"year"`
	Abstract     string `json:"abstract"`
	Intervention string `json:"intervention"`
}

// LoadMappings reads a YAML sequence and returns its mapping entries, dropping
// anything else.
func LoadMappings(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(checkpoint.ErrNotFound, "report: load %s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, eris.Wrapf(err, "report: parse %s", path)
	}
	var out []map[string]any
	for i := range nodes {
		if nodes[i].Kind != yaml.MappingNode {
			continue
		}
		var m map[string]any
		if err := nodes[i].Decode(&m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Interventions selects intervention rows from either an extraction store
// (kind "intervention") or a scraped records file (a non-empty
// interventions list).
func Interventions(rows []map[string]any) ([]InterventionEntry, error) {
	var out []InterventionEntry
	for _, row := range rows {
		switch kind := str(row["kind"]); {
		case kind == "intervention" || kind == "intervention_summary":
			out = append(out, InterventionEntry{
				ID:           orPlaceholder(str(row["record_id"])),
				Title:        orPlaceholder(str(row["title"])),
				Year:         orPlaceholder(str(row["year_of_publication"])),
				Abstract:     orPlaceholder(strings.TrimSpace(str(row["abstract"]))),
				Intervention: orPlaceholder(strings.TrimSpace(str(row["response"]))),
			})
		default:
			list := strList(row["interventions"])
			if len(list) == 0 {
				continue
			}
			out = append(out, InterventionEntry{
				ID:           orPlaceholder(str(row["id"])),
				Title:        orPlaceholder(str(row["title"])),
				Year:         orPlaceholder(str(row["year_of_publication"])),
				Abstract:     orPlaceholder(strings.TrimSpace(str(row["abstract"]))),
				Intervention: orPlaceholder(strings.Join(list, "; ")),
			})
		}
	}
	if len(out) == 0 {
		return nil, ErrNoInterventions
	}
	return out, nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func strList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, str(it))
	}
	return out
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
