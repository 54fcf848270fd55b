package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/pipeline"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast outcome grades without seeing the results",
	Long:  "Asks the model to predict the grade of each informative outcome from the intervention and outcome term alone.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		return stageRun[model.ForecastRecord]{
			stage:    model.StageForecast,
			input:    flagOr(cmd, "input", cfg.Paths.Extractions),
			output:   flagOr(cmd, "output", cfg.Paths.Forecasts),
			modeName: cfg.Checkpoint.ForecastMode,
			limit:    limit,
			run:      pipeline.Forecast,
		}.execute(ctx, os.Stdout)
	},
}

func init() {
	forecastCmd.Flags().Int("limit", 0, "max new items to submit (0 = no limit)")
	forecastCmd.Flags().String("input", "", "extractions file (default from config)")
	forecastCmd.Flags().String("output", "", "forecasts file (default from config)")
	rootCmd.AddCommand(forecastCmd)
}
