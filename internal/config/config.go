package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/insightloom/internal/utils"
)

// Output formats accepted by output_format.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatTable    = "table"
)

const dirName = ".insightloom"

// Global configuration structure.
type Global struct {
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	// Loader settings
	MaxRows            int    `mapstructure:"max_rows" yaml:"max_rows"`
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	SheetName          string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex         int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Batch runs
	Workers int `mapstructure:"workers" yaml:"workers"`

	Color    bool   `mapstructure:"color" yaml:"color"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"output_format", "max_rows", "delimiter", "decimal_separator", "thousands_separator",
	"sheet_name", "sheet_index", "workers", "color", "log_level",
}

// Default returns the built-in settings.
func Default() *Global {
	return &Global{
		OutputFormat: FormatMarkdown,
		MaxRows:      100000,
		SheetIndex:   1,
		Workers:      4,
		Color:        true,
		LogLevel:     "info",
	}
}

// DefaultPath returns ~/.insightloom/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.WriteFileAtomic(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTLOOM")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("thousands_separator", d.ThousandsSeparator)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("color", d.Color)
	v.SetDefault("log_level", d.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	switch c.OutputFormat {
	case FormatMarkdown, FormatJSON, FormatTable:
	default:
		return fmt.Errorf("invalid output_format: %s (use markdown, json or table)", c.OutputFormat)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("invalid max_rows: %d", c.MaxRows)
	}
	if c.SheetIndex < 1 {
		return fmt.Errorf("invalid sheet_index: %d (sheets are numbered from 1)", c.SheetIndex)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	for key, s := range map[string]string{
		"delimiter":           c.Delimiter,
		"decimal_separator":   c.DecimalSeparator,
		"thousands_separator": c.ThousandsSeparator,
	} {
		if _, err := parseRune(s); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", c.LogLevel)
	}
	return nil
}

// Set assigns key from its string form, as typed on the command line.
func (c *Global) Set(key, val string) error {
	switch key {
	case "output_format":
		c.OutputFormat = strings.ToLower(val)
	case "max_rows", "sheet_index", "workers":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		switch key {
		case "max_rows":
			c.MaxRows = i
		case "sheet_index":
			c.SheetIndex = i
		default:
			c.Workers = i
		}
	case "delimiter":
		c.Delimiter = val
	case "decimal_separator":
		c.DecimalSeparator = val
	case "thousands_separator":
		c.ThousandsSeparator = val
	case "sheet_name":
		c.SheetName = val
	case "color":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for color: %w", err)
		}
		c.Color = b
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "output_format":
		return c.OutputFormat, nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "delimiter":
		return c.Delimiter, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "thousands_separator":
		return c.ThousandsSeparator, nil
	case "sheet_name":
		return c.SheetName, nil
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex), nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "color":
		return strconv.FormatBool(c.Color), nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Rune converts a one-character setting. "tab" and `\t` mean a tab; empty
// means auto-detect and yields 0.
func Rune(s string) rune {
	r, _ := parseRune(s)
	return r
}

func parseRune(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
