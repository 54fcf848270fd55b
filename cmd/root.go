package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "evidence-cli",
	Short: "LLM research data pipeline for impact evaluation evidence",
	Long:  "Scrapes study records, extracts interventions and outcomes, grades and forecasts outcomes with an LLM, and reports on the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
