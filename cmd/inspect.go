package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/insightloom/internal/config"
	"github.com/KaramelBytes/insightloom/internal/engine"
)

var inspectOutputPath string

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset>",
	Short: "Profile a dataset: field kinds, missing values and summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		p := engine.Profile(ds)

		var body string
		switch outputFormat() {
		case cfgpkg.FormatJSON:
			body, err = toJSON(p)
			if err != nil {
				return err
			}
		case cfgpkg.FormatTable:
			body = profileTable(p)
		default:
			body = p.Markdown()
		}
		return emit(cmd.OutOrStdout(), inspectOutputPath, body)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOutputPath, "output", "o", "", "optional path to write the profile")
}

func profileTable(p *engine.DatasetProfile) string {
	tbl := newTable(fmt.Sprintf("%s (%s rows)", p.Name, humanize.Comma(int64(p.Rows))))
	tbl.AppendHeader(table.Row{"Field", "Kind", "Non-null", "Missing", "Unique", "Summary"})
	for _, f := range p.Fields {
		tbl.AppendRow(table.Row{
			f.Name, f.Kind,
			humanize.Comma(int64(f.NonNull)), humanize.Comma(int64(f.Missing)), humanize.Comma(int64(f.Unique)),
			fieldSummary(f),
		})
	}
	out := tbl.Render() + "\n"
	for _, n := range p.Notes {
		out += "• " + n + "\n"
	}
	return out
}

func fieldSummary(f engine.FieldProfile) string {
	switch {
	case f.Numeric != nil:
		n := f.Numeric
		return fmt.Sprintf("mean %s, median %s, range %s to %s",
			humanValue(n.Mean), humanValue(n.Median), humanValue(n.Min), humanValue(n.Max))
	case f.Dates != nil:
		return f.Dates.First.Format("2006-01-02") + " to " + f.Dates.Last.Format("2006-01-02")
	case len(f.Top) > 0:
		parts := make([]string, 0, 3)
		for _, v := range f.Top[:min(3, len(f.Top))] {
			parts = append(parts, fmt.Sprintf("%s(%d)", v.Value, v.Count))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
