package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/insightloom/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	noColor bool
	// Overrides for config values (applied only when set)
	flagFormat     string
	flagMaxRows    int
	flagDelimiter  string
	flagDecimal    string
	flagThousands  string
	flagSheetName  string
	flagSheetIndex int
	flagWorkers    int

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

var rootCmd = &cobra.Command{
	Use:           "insightloom",
	Short:         "InsightLoom: run survey analytics on tabular datasets",
	Long:          `InsightLoom loads CSV, TSV, XLSX or JSON datasets and runs catalog analyses (rankings, breakdowns, correlations, clustering, anomaly detection, forecasts and more), printing chart specs or calculations as Markdown, JSON or tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.insightloom/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.BoolVar(&noColor, "no-color", false, "disable colored status output")
	pf.StringVar(&flagFormat, "format", "", "output format: markdown | json | table (overrides config)")
	pf.IntVar(&flagMaxRows, "max-rows", 0, "maximum rows to load, 0 = unlimited (overrides config)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	pf.StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|',' (auto-detect if omitted)")
	pf.StringVar(&flagThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	pf.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load")
	pf.IntVar(&flagSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	pf.IntVar(&flagWorkers, "workers", 0, "parallel analyses in batch runs (overrides config)")
}

// loadConfig reads configuration and applies flag overrides. A broken config
// file is reported and the built-in defaults are used instead.
func loadConfig() error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", color.YellowString("⚠ Warning:"), err)
		c = cfgpkg.Default()
	}

	f := rootCmd.PersistentFlags()
	if f.Changed("format") {
		c.OutputFormat = strings.ToLower(flagFormat)
	}
	if f.Changed("max-rows") && flagMaxRows >= 0 {
		c.MaxRows = flagMaxRows
	}
	if f.Changed("delimiter") {
		c.Delimiter = flagDelimiter
	}
	if f.Changed("decimal") {
		c.DecimalSeparator = flagDecimal
	}
	if f.Changed("thousands") {
		c.ThousandsSeparator = flagThousands
	}
	if f.Changed("sheet-name") {
		c.SheetName = flagSheetName
	}
	if f.Changed("sheet-index") && flagSheetIndex > 0 {
		c.SheetIndex = flagSheetIndex
	}
	if f.Changed("workers") && flagWorkers > 0 {
		c.Workers = flagWorkers
	}
	if noColor {
		c.Color = false
	}
	if debug {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	color.NoColor = !cfg.Color || color.NoColor
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	logger.Debug("config loaded", "file", cfgFile, "format", cfg.OutputFormat, "max_rows", cfg.MaxRows, "workers", cfg.Workers)
	return nil
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
