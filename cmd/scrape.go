package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/resilience"
	"github.com/sells-group/evidence-cli/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url-file]",
	Short: "Fetch study records from the evidence portal",
	Long:  "Reads record URLs, fetches each record over GraphQL and appends it to the records file. Records already present are not fetched again.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		urlFile := cfg.Paths.URLFile
		if len(args) == 1 {
			urlFile = args[0]
		}
		ids, err := scrape.ReadRecordIDs(urlFile)
		if err != nil {
			return err
		}

		records, err := checkpoint.Open[model.SourceRecord](flagOr(cmd, "output", cfg.Paths.Records), checkpoint.ModeAppend, cfg.Checkpoint.Fsync)
		if err != nil {
			return err
		}

		client := scrape.NewClient(cfg.Scrape.GraphQLURL,
			time.Duration(cfg.Scrape.TimeoutSecs)*time.Second,
			scrape.WithLimiter(scrape.NewLimiter(time.Duration(cfg.Scrape.DelayMs)*time.Millisecond)),
		)

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := trackRun(ctx, st, model.StageScrape, func(ctx context.Context, runID string) (*model.RunSummary, error) {
			onFailure := func(f scrape.Failure) {
				entry := resilience.DLQEntry{
					RunID:     runID,
					Stage:     model.StageScrape,
					Key:       model.Key{RecordID: strconv.Itoa(f.ID)},
					Error:     f.Err.Error(),
					ErrorType: resilience.ClassifyError(f.Err),
					Attempts:  1,
				}
				if err := st.RecordFailure(context.WithoutCancel(ctx), entry); err != nil {
					zap.L().Warn("failed to record dead letter", zap.Int("id", f.ID), zap.Error(err))
				}
			}
			return scrape.NewScraper(client, records, onFailure).Run(ctx, ids)
		})
		if sum != nil {
			formatSummary(os.Stdout, sum)
		}
		return err
	},
}

func init() {
	scrapeCmd.Flags().String("output", "", "records file (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}
