package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/engine"
)

var (
	runType       string
	runFields     []string
	runOutputPath string
)

var runCmd = &cobra.Command{
	Use:   "run <dataset>",
	Short: "Run one analysis on a dataset",
	Long: `Run one catalog analysis on a CSV, TSV, XLSX or JSON dataset.

Fields are given in role order (see 'insightloom kinds'); time-based analyses
detect date and value fields from the data when none are selected.`,
	Example: `  insightloom run survey.csv --type Ranking --fields region
  insightloom run survey.xlsx --type "Trend with Forecast" --fields submitted,score --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := engine.Request{Type: engine.Kind(strings.TrimSpace(runType)), Fields: runFields}
		a, err := engine.Build(req)
		if err != nil {
			if errors.Is(err, engine.ErrInvalidFieldSelection) {
				return fmt.Errorf("%w (see 'insightloom kinds')", err)
			}
			return err
		}
		if a.Kind() == engine.KindHistogram {
			warnf("unknown analysis type %q, falling back to a histogram", runType)
		}

		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		if missing := missingFields(ds, runFields); len(missing) > 0 {
			warnf("%s has no column named %s", args[0], strings.Join(missing, ", "))
		}
		res := engine.Execute(a, ds)
		if msg, isErr := res.Err(); isErr {
			warnf("%s: %s", a.Kind(), msg)
		}
		logger.Debug("analysis finished", "kind", a.Kind(), "result", res.Kind)

		body, err := renderResult(res, outputFormat())
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), runOutputPath, body)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runType, "type", "t", "", "analysis type, e.g. \"Ranking\" or \"Correlation\"")
	runCmd.Flags().StringSliceVar(&runFields, "fields", nil, "comma-separated field names in role order (repeatable)")
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "optional path to write the result")
	_ = runCmd.MarkFlagRequired("type")
}
