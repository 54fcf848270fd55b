package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract interventions and outcomes from scraped abstracts",
	Long:  "Expands every scraped record into intervention and outcome work items and asks the model to describe each one. Completed items are skipped on rerun.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		return stageRun[model.ExtractionRecord]{
			stage:    model.StageExtract,
			input:    flagOr(cmd, "input", cfg.Paths.Records),
			output:   flagOr(cmd, "output", cfg.Paths.Extractions),
			modeName: cfg.Checkpoint.ExtractionMode,
			limit:    limit,
			run:      pipeline.Extract,
		}.execute(ctx, os.Stdout)
	},
}

func init() {
	extractCmd.Flags().Int("limit", 0, "max new items to submit (0 = no limit)")
	extractCmd.Flags().String("input", "", "scraped records file (default from config)")
	extractCmd.Flags().String("output", "", "extractions file (default from config)")
	rootCmd.AddCommand(extractCmd)
}

// flagOr returns the string flag's value, or def when the flag is empty.
func flagOr(cmd *cobra.Command, name, def string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return def
}
