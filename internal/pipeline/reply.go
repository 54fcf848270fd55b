package pipeline

import (
	"bufio"
	"regexp"
	"strings"
)

type section int

const (
	sectionNone section = iota
	sectionScratchpad
	sectionPrediction
	sectionGrade
)

var sectionHeader = regexp.MustCompile(`(?i)^[\s*#_>-]*(scratchpad thoughts|scratchpad|prediction|grade)\b[^:]{0,40}:(.*)$`)

// ForecastReply holds the three labelled sections of a forecast reply. A
// section the reply never opened is nil.
type ForecastReply struct {
	Scratchpad *string
	Prediction *string
	Grade      *string
}

func (r ForecastReply) get(s section) *string {
	switch s {
	case sectionScratchpad:
		return r.Scratchpad
	case sectionPrediction:
		return r.Prediction
	case sectionGrade:
		return r.Grade
	}
	return nil
}

func (r *ForecastReply) open(s section, value string) {
	v := value
	switch s {
	case sectionScratchpad:
		r.Scratchpad = &v
	case sectionPrediction:
		r.Prediction = &v
	case sectionGrade:
		r.Grade = &v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sectionOf(label string) section {
	switch strings.ToLower(label) {
	case "scratchpad", "scratchpad thoughts":
		return sectionScratchpad
	case "prediction":
		return sectionPrediction
	default:
		return sectionGrade
	}
}

func cleanValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), "*_ ")
}

// ParseForecastReply scans a reply line by line. A line starting with a known
// section label, optionally followed by a short qualifier such as "(final)",
// and then a colon opens that section, replacing any earlier value; any other
// non-blank line is appended to the section opened most recently. The grade
// section only takes a continuation line while it is still empty, so a grade
// written on the line after its label is kept and trailing commentary is not.
func ParseForecastReply(reply string) ForecastReply {
	var out ForecastReply
	current := sectionNone

	sc := bufio.NewScanner(strings.NewReader(reply))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			current = sectionOf(m[1])
			out.open(current, cleanValue(m[2]))
			continue
		}
		buf := out.get(current)
		if buf == nil {
			continue
		}
		line = cleanValue(line)
		switch {
		case current == sectionGrade && *buf != "":
		case *buf == "":
			*buf = line
		default:
			*buf += " " + line
		}
	}
	return out
}
