package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Options controls how tabular sources are turned into records.
type Options struct {
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// XLSX sheet selection. SheetName wins over SheetIndex (1-based).
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for loading survey exports.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		SheetIndex: 1,
	}
}

// LoadCSV reads a delimited file with a header row into a Dataset. Numeric
// cells become float64, blank cells nil, everything else a trimmed string.
func LoadCSV(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	ds, err := readCSV(f, delim, opt)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(path)
	return ds, nil
}

func readCSV(src io.Reader, delim rune, opt Options) (*Dataset, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Dataset{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := normalizeHeader(header)
	ds := &Dataset{Columns: cols}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", ds.Total+1, err)
		}
		ds.Total++
		if len(ds.Rows) >= maxRows {
			continue
		}
		ds.Rows = append(ds.Rows, buildRecord(cols, rec, opt))
	}
	return ds, nil
}

// normalizeHeader trims names and makes blanks and duplicates addressable.
func normalizeHeader(header []string) []string {
	cols := make([]string, len(header))
	used := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			used[name] = 1
		}
		cols[i] = name
	}
	return cols
}

func buildRecord(cols []string, cells []string, opt Options) Record {
	rec := make(Record, len(cols))
	for j, name := range cols {
		if j >= len(cells) {
			rec[name] = nil
			continue
		}
		rec[name] = cellValue(cells[j], opt)
	}
	return rec
}

func cellValue(raw string, opt Options) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	if x, ok := parseNumeric(v, opt); ok {
		return x
	}
	return v
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	// Default to comma; using filename heuristic only to avoid reading twice.
	return ','
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	// Normalize spaces
	raw = strings.ReplaceAll(raw, " ", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	// Remove thousands separators if they differ from decimal
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
