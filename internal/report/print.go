package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/go-wordwrap"
)

const (
	rule      = "================================================================================"
	thinRule  = "--------------------------------------------------------------------------------"
	wrapWidth = 90
	barWidth  = 40
)

// FprintEvaluation writes the evaluation report.
func FprintEvaluation(w io.Writer, ev *Evaluation) {
	fmt.Fprintln(w, "=== Forecast Evaluation ===")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "N overlap\t%d\n", ev.N)
	fmt.Fprintf(tw, "RMSE\t%.4f\n", ev.Forecast.RMSE)
	fmt.Fprintf(tw, "Accuracy\t%.3f%%\n", 100*ev.Forecast.Accuracy)
	fmt.Fprintf(tw, "Macro-F1\t%.4f\n", ev.MacroF1)
	fmt.Fprintf(tw, "Brier score\t%.4f\n", ev.Forecast.Brier)
	_ = tw.Flush()

	fmt.Fprintln(w, "\n--- Baselines")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BASELINE\tRMSE\tACCURACY\tBRIER")
	fmt.Fprintf(tw, "most common (%s)\t%.4f\t%.3f%%\t%.4f\n", ev.ModeGrade, ev.Mode.RMSE, 100*ev.Mode.Accuracy, ev.Mode.Brier)
	fmt.Fprintf(tw, "random\t%.4f\t%.3f%%\t%.4f\n", ev.Random.RMSE, 100*ev.Random.Accuracy, ev.Random.Brier)
	_ = tw.Flush()

	fmt.Fprintln(w, "\n--- Grade distribution")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GRADE\tTRUTH\tFORECAST")
	for _, d := range ev.Distribution {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", d.Grade, d.Truth, d.Forecast)
	}
	_ = tw.Flush()
}

// FprintOutcomes writes outcome counts and the per-term table.
func FprintOutcomes(w io.Writer, st *OutcomeStats) {
	fmt.Fprintln(w, rule)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Unique record IDs\t%d\n", st.UniqueRecords)
	fmt.Fprintf(tw, "Total outcomes\t%d\n", st.TotalOutcomes)
	fmt.Fprintf(tw, "Non-informative outcomes\t%d\n", st.NonInformative)
	fmt.Fprintf(tw, "Fraction non-informative\t%.2f%%\n", 100*st.NonInformativeFraction)
	fmt.Fprintf(tw, "Informative outcomes\t%d\n", st.Informative)
	fmt.Fprintf(tw, "Terms with >= 3 informative responses\t%d\n", st.TermsAtLeast3)
	fmt.Fprintf(tw, "Informative responses from those terms\t%d\n", st.ResponsesAtLeast3)
	_ = tw.Flush()
	fmt.Fprintln(w, rule)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tINFORMATIVE")
	for _, tc := range st.ByTerm {
		fmt.Fprintf(tw, "%s\t%d\n", tc.Term, tc.Count)
	}
	_ = tw.Flush()
}

// FprintTermGroups writes informative responses grouped by term.
func FprintTermGroups(w io.Writer, groups []TermGroup) {
	for _, g := range groups {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Outcome: %s (%d occurrences)\n", g.Term, len(g.Records))
		fmt.Fprintln(w, thinRule)
		for _, r := range g.Records {
			fmt.Fprintf(w, "Record ID: %s\n", r.RecordID)
			fmt.Fprintln(w, "Response:")
			fmt.Fprintln(w, r.Response)
			fmt.Fprintln(w, thinRule)
		}
	}
}

// FprintInterventions writes each intervention next to its abstract.
func FprintInterventions(w io.Writer, entries []InterventionEntry) {
	for _, e := range entries {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Record ID : %s\n", e.ID)
		fmt.Fprintf(w, "Title     : %s\n", e.Title)
		fmt.Fprintf(w, "Year      : %s\n", e.Year)
		fmt.Fprintln(w, thinRule)
		fmt.Fprintln(w, "Abstract:")
		fmt.Fprintln(w, wordwrap.WrapString(e.Abstract, wrapWidth))
		fmt.Fprintln(w, "\nIntervention Description:")
		fmt.Fprintln(w, wordwrap.WrapString(e.Intervention, wrapWidth))
		fmt.Fprintln(w)
	}
}

// FprintYearGaps writes the year-gap summary, the matching records and a
// histogram of gaps.
func FprintYearGaps(w io.Writer, st *YearGapStats) {
	fmt.Fprintln(w, rule)
	if st.Eligible == 0 {
		fmt.Fprintln(w, "No eligible records for year-range analysis.")
	} else {
		fmt.Fprintf(w, "Eligible records: %d\n", st.Eligible)
		fmt.Fprintf(w, "Matching records: %d\n", st.Matching)
		fmt.Fprintf(w, "%.2f%% of eligible records mention only years 1-3 years before publication.\n", st.Percent())
	}

	if len(st.Gaps) == 0 {
		fmt.Fprintln(w, "No valid year differences found.")
	} else {
		fmt.Fprintln(w, "\nYear mention gap statistics:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Mean difference (all mentions)\t%.2f years\n", Mean(st.Gaps))
		fmt.Fprintf(tw, "Median difference (all mentions)\t%.2f years\n", Median(st.Gaps))
		if nn := st.NonNegativeGaps(); len(nn) > 0 {
			fmt.Fprintf(tw, "Mean difference (non-negative)\t%.2f years\n", Mean(nn))
			fmt.Fprintf(tw, "Median difference (non-negative)\t%.2f years\n", Median(nn))
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "Records with a 1-3 year gap:")
	for i, r := range st.Records {
		fmt.Fprintf(w, "\nRecord %d %s (publication year: %d):\n", i+1, r.RecordID, r.PublicationYear)
		for _, m := range r.Mentions {
			fmt.Fprintf(w, "  Mentioned year %d: ...%s...\n", m.Year, m.Context)
		}
	}

	if len(st.Gaps) > 0 {
		fmt.Fprintln(w, "\n"+rule)
		fmt.Fprintln(w, "Publication year minus mentioned year:")
		FprintHistogram(w, st.Gaps)
	}
}

// FprintHistogram draws one bar per distinct value, scaled to the largest
// bucket.
func FprintHistogram(w io.Writer, values []int) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	counts := make(map[int]int)
	for _, v := range values {
		counts[v]++
		lo = min(lo, v)
		hi = max(hi, v)
	}
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	for v := lo; v <= hi; v++ {
		c := counts[v]
		bar := strings.Repeat("#", (c*barWidth+peak-1)/peak)
		fmt.Fprintf(tw, "%d\t%d\t %s\n", v, c, bar)
	}
	_ = tw.Flush()
}
