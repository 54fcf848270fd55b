package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/pipeline"
	"github.com/sells-group/evidence-cli/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report on pipeline data files",
	Long:  "Read-only statistics over the records and extractions files.",
}

// -- stats outcomes --

var statsOutcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Summarize extracted outcome responses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := checkpoint.LoadRequired[model.ExtractionRecord](flagOr(cmd, "input", cfg.Paths.Extractions))
		if err != nil {
			return err
		}
		st := report.Outcomes(records)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		report.FprintOutcomes(os.Stdout, st)

		if xlsxPath, _ := cmd.Flags().GetString("xlsx"); xlsxPath != "" {
			if err := report.WriteXLSX(xlsxPath, nil, st); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", xlsxPath)
		}
		return nil
	},
}

// -- stats informative --

var statsInformativeCmd = &cobra.Command{
	Use:   "informative",
	Short: "List informative responses for frequent outcome terms",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := checkpoint.LoadRequired[model.ExtractionRecord](flagOr(cmd, "input", cfg.Paths.Extractions))
		if err != nil {
			return err
		}
		minCount, _ := cmd.Flags().GetInt("min")
		groups := report.InformativeByTerm(records, minCount)
		if len(groups) == 0 {
			fmt.Fprintf(os.Stderr, "No terms with more than %d informative responses.\n", minCount)
			return nil
		}
		report.FprintTermGroups(os.Stdout, groups)
		return nil
	},
}

// -- stats interventions --

var statsInterventionsCmd = &cobra.Command{
	Use:   "interventions [file]",
	Short: "Print intervention descriptions next to their abstracts",
	Long:  "Reads either an extractions file or the raw records file and prints each intervention description with the abstract it came from.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := cfg.Paths.Extractions
		if len(args) == 1 {
			path = args[0]
		}
		rows, err := report.LoadMappings(path)
		if err != nil {
			return err
		}
		entries, err := report.Interventions(rows)
		if err != nil {
			return err
		}
		report.FprintInterventions(os.Stdout, entries)
		return nil
	},
}

// -- stats yeargap --

var statsYearGapCmd = &cobra.Command{
	Use:   "yeargap",
	Short: "Measure how far abstract year mentions precede publication",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := pipeline.LoadSources(flagOr(cmd, "input", cfg.Paths.Records))
		if err != nil {
			return err
		}
		report.FprintYearGaps(os.Stdout, report.YearGaps(entries))
		return nil
	},
}

func init() {
	statsOutcomesCmd.Flags().String("input", "", "extractions file (default from config)")
	statsOutcomesCmd.Flags().Bool("json", false, "print as JSON")
	statsOutcomesCmd.Flags().String("xlsx", "", "also export to this XLSX file")

	statsInformativeCmd.Flags().String("input", "", "extractions file (default from config)")
	statsInformativeCmd.Flags().Int("min", report.DefaultMinOccurrences, "only terms with more than this many informative responses")

	statsYearGapCmd.Flags().String("input", "", "records file (default from config)")

	statsCmd.AddCommand(statsOutcomesCmd)
	statsCmd.AddCommand(statsInformativeCmd)
	statsCmd.AddCommand(statsInterventionsCmd)
	statsCmd.AddCommand(statsYearGapCmd)
	rootCmd.AddCommand(statsCmd)
}
