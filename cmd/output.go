package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	cfgpkg "github.com/KaramelBytes/insightloom/internal/config"
	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/engine"
	"github.com/KaramelBytes/insightloom/internal/utils"
)

// loaderOptions maps configuration onto dataset loader options.
func loaderOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	if cfg == nil {
		return opt
	}
	opt.MaxRows = cfg.MaxRows
	opt.Delimiter = cfgpkg.Rune(cfg.Delimiter)
	opt.DecimalSeparator = cfgpkg.Rune(cfg.DecimalSeparator)
	opt.ThousandsSeparator = cfgpkg.Rune(cfg.ThousandsSeparator)
	opt.SheetName = cfg.SheetName
	opt.SheetIndex = cfg.SheetIndex
	return opt
}

func loadDataset(path string) (*dataset.Dataset, error) {
	ds, err := dataset.Load(path, loaderOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded", "path", path, "rows", ds.Len(), "columns", len(ds.Columns))
	if ds.Total > ds.Len() {
		warnf("loaded %s of %s rows from %s (max_rows)", humanize.Comma(int64(ds.Len())), humanize.Comma(int64(ds.Total)), path)
	}
	return ds, nil
}

// missingFields returns the selected names that are not dataset columns.
func missingFields(ds *dataset.Dataset, fields []string) []string {
	var out []string
	for _, f := range fields {
		if !ds.HasColumn(f) {
			out = append(out, f)
		}
	}
	return out
}

func outputFormat() string {
	if cfg == nil {
		return cfgpkg.FormatMarkdown
	}
	return cfg.OutputFormat
}

// emit writes body to path when set, else to w.
func emit(w io.Writer, path, body string) error {
	if path == "" {
		_, err := io.WriteString(w, body)
		return err
	}
	if err := utils.WriteFileAtomic(path, []byte(body)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	okf(w, "Wrote %s", path)
	return nil
}

func okf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("⚠ Warning:"), fmt.Sprintf(format, args...))
}

func toJSON(v any) (string, error) {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderResult formats one result in the configured output format.
func renderResult(res *engine.Result, format string) (string, error) {
	switch format {
	case cfgpkg.FormatJSON:
		return toJSON(res)
	case cfgpkg.FormatTable:
		return resultTable(res), nil
	}
	return res.Markdown(), nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	if title != "" {
		tbl.SetTitle(title)
	}
	return tbl
}

func resultTable(res *engine.Result) string {
	var b strings.Builder
	title := fmt.Sprintf("%s: %s", res.Analysis, res.Title)
	if res.Kind == engine.ResultCalculation {
		tbl := newTable(title)
		tbl.AppendHeader(table.Row{"Measure", "Value"})
		for _, k := range res.Calculation.Keys() {
			tbl.AppendRow(table.Row{k, humanValue(res.Calculation[k])})
		}
		b.WriteString(tbl.Render())
		b.WriteString("\n")
		return b.String()
	}
	if res.Chart == nil {
		return title + "\n"
	}
	for _, s := range res.Chart.Series {
		tbl := newTable(fmt.Sprintf("%s (%s)", title, s.Name))
		if s.Type == engine.SeriesHeatmap {
			header := table.Row{""}
			for _, x := range s.X {
				header = append(header, engine.FormatValue(x))
			}
			tbl.AppendHeader(header)
			for i, row := range s.Z {
				r := table.Row{engine.FormatValue(s.Y[i])}
				for _, v := range row {
					r = append(r, fmt.Sprintf("%.3f", v))
				}
				tbl.AppendRow(r)
			}
		} else {
			tbl.AppendHeader(table.Row{axisName(res.Chart.Layout.XAxis, "x"), axisName(res.Chart.Layout.YAxis, "y")})
			n := max(len(s.X), len(s.Y))
			for i := range n {
				tbl.AppendRow(table.Row{cell(s.X, i), cell(s.Y, i)})
			}
			tbl.AppendFooter(table.Row{"Points", humanize.Comma(int64(n))})
		}
		b.WriteString(tbl.Render())
		b.WriteString("\n")
	}
	for _, a := range res.Chart.Layout.Annotations {
		b.WriteString("• " + a + "\n")
	}
	return b.String()
}

func axisName(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func cell(xs []any, i int) string {
	if i >= len(xs) {
		return ""
	}
	return humanValue(xs[i])
}

// humanValue adds thousands separators to numbers.
func humanValue(v any) string {
	switch x := v.(type) {
	case int:
		return humanize.Comma(int64(x))
	case float64:
		if x == float64(int64(x)) && x < 1e15 && x > -1e15 {
			return humanize.Comma(int64(x))
		}
		return humanize.FormatFloat("#,###.####", x)
	}
	return engine.FormatValue(v)
}
