package engine

import (
	"fmt"
	"strings"
	"time"
)

// maxListedPoints bounds how many points of a series are written out.
const maxListedPoints = 12

// Markdown renders the result in the sectioned plain-text layout used for
// reports.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[ANALYSIS]\n")
	b.WriteString(fmt.Sprintf("Type: %s\n", r.Analysis))
	if r.Title != "" {
		b.WriteString(fmt.Sprintf("Title: %s\n", safeVal(r.Title)))
	}

	if msg, ok := r.Err(); ok {
		b.WriteString("\n[ERROR]\n")
		b.WriteString(msg)
		b.WriteString("\n")
		return b.String()
	}

	if r.Kind == ResultCalculation {
		b.WriteString("\n[CALCULATION]\n")
		for _, k := range r.Calculation.Keys() {
			b.WriteString(fmt.Sprintf("- %s: %s\n", k, FormatValue(r.Calculation[k])))
		}
		return b.String()
	}
	if r.Chart == nil {
		return b.String()
	}

	l := r.Chart.Layout
	if l.XAxis != "" || l.YAxis != "" {
		b.WriteString(fmt.Sprintf("Axes: x=%s, y=%s\n", safeName(l.XAxis), safeName(l.YAxis)))
	}
	for _, s := range r.Chart.Series {
		if s.Type == SeriesHeatmap {
			writeMatrix(&b, s)
			continue
		}
		b.WriteString(fmt.Sprintf("\n[SERIES] %s (%s, %d points)\n", safeName(s.Name), s.Type, max(len(s.X), len(s.Y))))
		if s.Type == SeriesHistogram {
			writeHistogram(&b, s)
			continue
		}
		n := min(len(s.X), len(s.Y))
		for i := 0; i < n && i < maxListedPoints; i++ {
			b.WriteString(fmt.Sprintf("- %s: %s\n", safeVal(FormatValue(s.X[i])), FormatValue(s.Y[i])))
		}
		if n > maxListedPoints {
			b.WriteString(fmt.Sprintf("- … %d more\n", n-maxListedPoints))
		}
	}
	if len(l.Annotations) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, a := range l.Annotations {
			b.WriteString("- ")
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeMatrix(b *strings.Builder, s Series) {
	b.WriteString("\n[MATRIX]\n| |")
	for _, x := range s.X {
		b.WriteString(" " + safeName(FormatValue(x)) + " |")
	}
	b.WriteString("\n|---|")
	for range s.X {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, row := range s.Z {
		name := ""
		if i < len(s.Y) {
			name = FormatValue(s.Y[i])
		}
		b.WriteString("| " + safeName(name) + " |")
		for _, v := range row {
			b.WriteString(fmt.Sprintf(" %.3f |", v))
		}
		b.WriteString("\n")
	}
}

// writeHistogram summarizes raw histogram input as counts per distinct value.
func writeHistogram(b *strings.Builder, s Series) {
	t := newTally()
	for _, x := range s.X {
		t.add(FormatValue(x), 1)
	}
	top := t.ranked()
	for i, e := range top {
		if i == maxListedPoints {
			b.WriteString(fmt.Sprintf("- … %d more distinct values\n", len(top)-maxListedPoints))
			break
		}
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeVal(e.Label), int(e.Value)))
	}
}

// Markdown renders the profile as [DATASET SUMMARY], [SCHEMA] and [NOTES].
func (p *DatasetProfile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	if p.Total > p.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", p.Total, p.Rows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Fields)))

	b.WriteString("[SCHEMA]\n")
	for _, f := range p.Fields {
		missPct := 0.0
		if total := f.NonNull + f.Missing; total > 0 {
			missPct = float64(f.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(f.Name), f.Kind, f.NonNull, missPct, f.Unique))
		switch {
		case f.Numeric != nil:
			n := f.Numeric
			b.WriteString(fmt.Sprintf(" — min %.4g, q1 %.4g, median %.4g, q3 %.4g, max %.4g, mean %.4g, std %.4g",
				n.Min, n.Q1, n.Median, n.Q3, n.Max, n.Mean, n.StdDev))
			if n.Skewness != nil {
				b.WriteString(fmt.Sprintf(", skew %.3f", *n.Skewness))
			}
			if len(n.Mode) > 0 {
				modes := make([]string, len(n.Mode))
				for i, m := range n.Mode {
					modes[i] = FormatValue(m)
				}
				b.WriteString("; mode " + strings.Join(modes, "/"))
			}
			if n.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", n.Outliers, OutlierThreshold, n.MaxAbsZ))
			}
		case f.Dates != nil:
			b.WriteString(fmt.Sprintf(" — %s to %s", f.Dates.First.Format(time.DateOnly), f.Dates.Last.Format(time.DateOnly)))
		case len(f.Top) > 0:
			b.WriteString(" — top: ")
			for i, kv := range f.Top {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}
	if len(p.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range p.Notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatValue renders a calculation or coordinate value for text output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "n/a"
	case float64:
		return fmt.Sprintf("%.4g", x)
	case string:
		return x
	}
	return label(v)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
