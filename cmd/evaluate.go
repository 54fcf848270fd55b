package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/report"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score forecasts against graded outcomes",
	Long:  "Joins forecasts to grades by key and reports RMSE, accuracy, macro-F1 and Brier score against the mode and random baselines.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed, _ := cmd.Flags().GetUint64("seed")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		ev, err := loadEvaluation(flagOr(cmd, "truth", cfg.Paths.Grades), flagOr(cmd, "forecasts", cfg.Paths.Forecasts), seed)
		if err != nil {
			return err
		}

		report.FprintEvaluation(os.Stdout, ev)

		if xlsxPath != "" {
			if err := report.WriteXLSX(xlsxPath, ev, nil); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", xlsxPath)
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("truth", "", "grades file (default from config)")
	evaluateCmd.Flags().String("forecasts", "", "forecasts file (default from config)")
	evaluateCmd.Flags().Uint64("seed", 0, "seed for the random baseline")
	evaluateCmd.Flags().String("xlsx", "", "also export the evaluation to this XLSX file")
	rootCmd.AddCommand(evaluateCmd)
}

// loadEvaluation reads both stores, which must exist, and evaluates them.
func loadEvaluation(truthPath, forecastsPath string, seed uint64) (*report.Evaluation, error) {
	truth, err := checkpoint.LoadRequired[model.GradeRecord](truthPath)
	if err != nil {
		return nil, err
	}
	forecasts, err := checkpoint.LoadRequired[model.ForecastRecord](forecastsPath)
	if err != nil {
		return nil, err
	}
	ev, err := report.Evaluate(truth, forecasts, seed)
	if err != nil {
		return nil, eris.Wrap(err, "evaluate")
	}
	return ev, nil
}
