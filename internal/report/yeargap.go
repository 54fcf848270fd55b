package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/evidence-cli/internal/model"
)

var yearPattern = regexp.MustCompile(`\b(19[6-9]\d|20[0-4]\d|2050)\b`)

// publisherSuffixes follow a year in copyright and publisher notices.
var publisherSuffixes = []string{
	"elsevier",
	"the authors",
	"western social science",
	"wiley",
	"taylor & francis",
	"springer",
	"sage",
	"oxford university press",
	"academic press",
}

const contextRadius = 40

// YearMention is a year found in an abstract with the text around it.
type YearMention struct {
	Year    int    `json:"year"`
	Context string `json:"context"`
}

// YearGapRecord is a record whose year mentions all fall one to three years
// before publication.
type YearGapRecord struct {
	RecordID        string        `json:"record_id"`
	PublicationYear int           `json:"publication_year"`
	Mentions        []YearMention `json:"mentions"`
}

// YearGapStats describes the gap between publication year and the years an
// abstract mentions.
type YearGapStats struct {
	Eligible int             `json:"eligible"`
	Matching int             `json:"matching"`
	Gaps     []int           `json:"gaps"`
	Records  []YearGapRecord `json:"records"`
}

// Percent returns the share of eligible records that match.
func (s *YearGapStats) Percent() float64 {
	if s.Eligible == 0 {
		return 0
	}
	return 100 * float64(s.Matching) / float64(s.Eligible)
}

// NonNegativeGaps returns the gaps of years at or before publication.
func (s *YearGapStats) NonNegativeGaps() []int {
	var out []int
	for _, g := range s.Gaps {
		if g >= 0 {
			out = append(out, g)
		}
	}
	return out
}

// excludedMention reports whether year appears inside a copyright or
// publisher phrase anywhere in the abstract.
func excludedMention(lowered string, year int) bool {
	y := strconv.Itoa(year)
	if strings.Contains(lowered, "(c) "+y) || strings.Contains(lowered, "© "+y) {
		return true
	}
	for _, s := range publisherSuffixes {
		if strings.Contains(lowered, y+" "+s) {
			return true
		}
	}
	return false
}

func yearMentions(abstract string) []YearMention {
	lowered := cases.Lower(language.Und).String(abstract)
	var out []YearMention
	for _, loc := range yearPattern.FindAllStringIndex(abstract, -1) {
		year, _ := strconv.Atoi(abstract[loc[0]:loc[1]])
		if excludedMention(lowered, year) {
			continue
		}
		start := max(0, loc[0]-contextRadius)
		end := min(len(abstract), loc[1]+contextRadius)
		out = append(out, YearMention{
			Year:    year,
			Context: strings.ReplaceAll(abstract[start:end], "\n", " "),
		})
	}
	return out
}

// YearGaps examines source records with an abstract and an integer year.
// A record matches when every distinct year it mentions lies one to three
// years before publication. Records mentioning a year four or more years
// before publication contribute neither a match nor gaps.
func YearGaps(entries []model.SourceEntry) *YearGapStats {
	st := &YearGapStats{}
	for _, e := range entries {
		if e.Record == nil {
			continue
		}
		abstract, ok := e.Record.AbstractText()
		if !ok {
			continue
		}
		pub, ok := e.Record.Year()
		if !ok || pub == 0 {
			continue
		}
		st.Eligible++

		mentions := yearMentions(abstract)
		if len(mentions) == 0 {
			continue
		}

		years := distinctYears(mentions)
		tooOld := false
		within := true
		for _, y := range years {
			if y <= pub-4 {
				tooOld = true
			}
			if gap := pub - y; gap < 1 || gap > 3 {
				within = false
			}
		}
		if tooOld {
			continue
		}
		if within {
			st.Matching++
			st.Records = append(st.Records, YearGapRecord{
				RecordID:        model.RecordID(e.Index),
				PublicationYear: pub,
				Mentions:        mentions,
			})
		}
		for _, y := range years {
			st.Gaps = append(st.Gaps, pub-y)
		}
	}
	return st
}

func distinctYears(mentions []YearMention) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range mentions {
		if !seen[m.Year] {
			seen[m.Year] = true
			out = append(out, m.Year)
		}
	}
	sort.Ints(out)
	return out
}

// Mean returns the arithmetic mean of xs, or 0 when empty.
func Mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// Median returns the median of xs, or 0 when empty.
func Median(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]int(nil), xs...)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}
