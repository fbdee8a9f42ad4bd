package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/insightloom/internal/config"
	"github.com/KaramelBytes/insightloom/internal/engine"
)

var kindsCmd = &cobra.Command{
	Use:     "kinds",
	Aliases: []string{"types"},
	Short:   "List analysis types and how many fields each takes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs := engine.Requirements()
		var body string
		switch outputFormat() {
		case cfgpkg.FormatJSON:
			s, err := toJSON(reqs)
			if err != nil {
				return err
			}
			body = s
		case cfgpkg.FormatTable:
			tbl := newTable("Analysis types")
			tbl.AppendHeader(table.Row{"Type", "Fields", "Description"})
			for _, r := range reqs {
				tbl.AppendRow(table.Row{r.Kind, fieldRange(r), r.Description})
			}
			tbl.AppendFooter(table.Row{"Total", len(reqs), ""})
			body = tbl.Render() + "\n"
		default:
			var b strings.Builder
			b.WriteString("[ANALYSIS TYPES]\n")
			for _, r := range reqs {
				b.WriteString(fmt.Sprintf("- %s (%s fields): %s\n", r.Kind, fieldRange(r), r.Description))
			}
			body = b.String()
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), body)
		return err
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func fieldRange(r engine.Requirement) string {
	if r.MinFields == r.MaxFields {
		return fmt.Sprintf("%d", r.MinFields)
	}
	return fmt.Sprintf("%d-%d", r.MinFields, r.MaxFields)
}
