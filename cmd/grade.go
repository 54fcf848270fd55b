package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/pipeline"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade informative outcome responses",
	Long:  "Asks the model to grade how strongly each informative outcome response supports a positive effect of the intervention.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		return stageRun[model.GradeRecord]{
			stage:    model.StageGrade,
			input:    flagOr(cmd, "input", cfg.Paths.Extractions),
			output:   flagOr(cmd, "output", cfg.Paths.Grades),
			modeName: cfg.Checkpoint.GradeMode,
			limit:    limit,
			run:      pipeline.Grade,
		}.execute(ctx, os.Stdout)
	},
}

func init() {
	gradeCmd.Flags().Int("limit", 0, "max new items to submit (0 = no limit)")
	gradeCmd.Flags().String("input", "", "extractions file (default from config)")
	gradeCmd.Flags().String("output", "", "grades file (default from config)")
	rootCmd.AddCommand(gradeCmd)
}
