package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/resilience"
	"github.com/sells-group/evidence-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stage run history",
	Long:  "Commands for listing, viewing, and summarizing stage runs and abandoned work items.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stage runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stage, _ := cmd.Flags().GetString("stage")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Stage:  model.Stage(stage),
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		filter := store.RunFilter{}
		if since > 0 {
			filter.CreatedAfter = time.Now().Add(-since)
		}
		filter.Limit = 10000 // high limit for stats

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		failures, err := st.CountFailures(ctx)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		stats := computeRunStats(runs)
		stats.DeadLetters = failures
		formatRunStats(os.Stdout, stats)
		return nil
	},
}

// -- runs failures --

var runsFailuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List work items abandoned after exhausting retries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runID, _ := cmd.Flags().GetString("run")
		stage, _ := cmd.Flags().GetString("stage")
		errType, _ := cmd.Flags().GetString("error-type")
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := st.ListFailures(ctx, resilience.DLQFilter{
			RunID:     runID,
			Stage:     model.Stage(stage),
			ErrorType: errType,
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs failures")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No failures recorded.")
			return nil
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		formatFailures(os.Stdout, entries)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("stage", "", "filter by stage (scrape, extract, grade, forecast)")
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, interrupted, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h)")

	runsFailuresCmd.Flags().String("run", "", "filter by run id")
	runsFailuresCmd.Flags().String("stage", "", "filter by stage")
	runsFailuresCmd.Flags().String("error-type", "", "filter by error type (transient, permanent)")
	runsFailuresCmd.Flags().Int("limit", 100, "max number of entries to display")
	runsFailuresCmd.Flags().Bool("json", false, "print as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsFailuresCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total       int
	Complete    int
	Interrupted int
	Failed      int
	Running     int
	Items       int
	ItemsFailed int
	Cost        float64
	AvgDurSecs  float64
	ByStage     map[model.Stage]int
	DeadLetters int
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	s := runStats{Total: len(runs), ByStage: make(map[model.Stage]int)}

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		s.ByStage[r.Stage]++
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
			totalDur += r.UpdatedAt.Sub(r.CreatedAt)
			durCount++
		case model.RunStatusInterrupted:
			s.Interrupted++
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
		if r.Summary != nil {
			s.Items += r.Summary.Completed
			s.ItemsFailed += r.Summary.Failed
			s.Cost += r.Summary.Cost
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTAGE\tSTATUS\tDONE\tFAILED\tCOST\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t----\t------\t----\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		var done, failed int
		var cost float64
		if r.Summary != nil {
			done, failed, cost = r.Summary.Completed, r.Summary.Failed, r.Summary.Cost
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t$%.4f\t%s\t%s\n",
			truncateID(r.ID),
			r.Stage,
			r.Status,
			done,
			failed,
			cost,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	for _, stage := range []model.Stage{model.StageScrape, model.StageExtract, model.StageGrade, model.StageForecast} {
		if n := s.ByStage[stage]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", stage, n)
		}
	}
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Interrupted:\t%d\n", s.Interrupted)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	_, _ = fmt.Fprintf(w, "Items completed:\t%d\n", s.Items)
	_, _ = fmt.Fprintf(w, "Items abandoned:\t%d\n", s.ItemsFailed)
	_, _ = fmt.Fprintf(w, "Dead letters (all time):\t%d\n", s.DeadLetters)
	_, _ = fmt.Fprintf(w, "Est. cost:\t$%.4f\n", s.Cost)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// formatFailures writes a tabular list of dead-letter entries to w.
func formatFailures(out io.Writer, entries []resilience.DLQEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSTAGE\tRECORD\tKIND\tTERM\tTYPE\tATTEMPTS\tERROR")
	for _, e := range entries {
		msg := e.Error
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			truncateID(e.RunID),
			e.Stage,
			e.Key.RecordID,
			e.Key.Kind,
			e.Key.Term,
			e.ErrorType,
			e.Attempts,
			msg,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
