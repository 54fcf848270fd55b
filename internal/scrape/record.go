package scrape

import (
	"encoding/json"

	"github.com/sells-group/evidence-cli/internal/model"
)

// toSourceRecord splits a decoded recordDetail object into the typed fields
// of SourceRecord and the remaining fields, which are kept verbatim.
func toSourceRecord(m map[string]any) *model.SourceRecord {
	rec := &model.SourceRecord{Extra: make(map[string]any)}
	for k, v := range m {
		v = normalize(v)
		switch k {
		case "id":
			rec.ID = v
		case "title":
			if s, ok := v.(string); ok {
				rec.Title = s
			} else if v != nil {
				rec.Extra[k] = v
			}
		case "year_of_publication":
			rec.YearOfPublication = v
		case "abstract":
			rec.Abstract = v
		case "interventions":
			rec.Interventions = stringList(v)
		case "outcome":
			rec.Outcomes = stringList(v)
		default:
			rec.Extra[k] = v
		}
	}
	return rec
}

// normalize converts json.Number into int64 or float64 so that ids and years
// serialize as YAML numbers.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalize(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalize(inner)
		}
		return t
	default:
		return v
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, isString := v.(string); isString && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
