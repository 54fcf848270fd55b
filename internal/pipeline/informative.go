package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/evidence-cli/internal/model"
)

// deflectionPhrases mark a response that declines to report on the outcome.
var deflectionPhrases = []string{
	"does not provide any information regarding",
	"does not provide specific information regarding",
	"does not provide specific information or quantitative data",
	"does not provide specific quantitative or categorical information",
}

// IsInformativeResponse reports whether an extraction response carries
// substantive content about its outcome. Grading, forecasting and reporting
// all filter through this one predicate.
func IsInformativeResponse(response string) bool {
	txt := cases.Lower(language.Und).String(strings.TrimSpace(response))
	if txt == "no information" || txt == "no information." {
		return false
	}
	for _, p := range deflectionPhrases {
		if strings.Contains(txt, p) {
			return false
		}
	}
	return true
}

// IsInformative reports whether rec is an outcome extraction with an
// informative response.
func IsInformative(rec model.ExtractionRecord) bool {
	return rec.Kind == model.KindOutcome && IsInformativeResponse(rec.Response)
}
