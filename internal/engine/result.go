package engine

import (
	"math"
	"sort"
)

// ResultKind tags which half of a Result is populated.
type ResultKind string

const (
	ResultChart       ResultKind = "chart"
	ResultCalculation ResultKind = "calculation"
)

// Series types understood by chart renderers.
const (
	SeriesBar       = "bar"
	SeriesLine      = "line"
	SeriesScatter   = "scatter"
	SeriesHeatmap   = "heatmap"
	SeriesHistogram = "histogram"
	SeriesBox       = "box"
)

// ErrorKey is the single key of a data-insufficiency Calculation.
const ErrorKey = "Error"

// Result is the envelope every analysis returns: a chart description or a set of
// named scalar calculations, never both.
type Result struct {
	Kind        ResultKind  `json:"kind"`
	Analysis    Kind        `json:"analysis"`
	Title       string      `json:"title,omitempty"`
	Chart       *Chart      `json:"chart,omitempty"`
	Calculation Calculation `json:"calculation,omitempty"`
}

// Chart is a plotly-like figure description.
type Chart struct {
	Series []Series `json:"series"`
	Layout Layout   `json:"layout"`
}

// Series is one trace of a chart. X and Y hold numbers, strings or
// timestamps; Z is only set for heatmaps.
type Series struct {
	Type   string      `json:"type"`
	Name   string      `json:"name,omitempty"`
	Color  string      `json:"color,omitempty"`
	Mode   string      `json:"mode,omitempty"`
	X      []any       `json:"x,omitempty"`
	Y      []any       `json:"y,omitempty"`
	Z      [][]float64 `json:"z,omitempty"`
	Text   []string    `json:"text,omitempty"`
	Marker *Marker     `json:"marker,omitempty"`
}

// Marker carries per-point styling. Colors is parallel to the series points
// when set.
type Marker struct {
	Color  string   `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
	Size   float64  `json:"size,omitempty"`
	Symbol string   `json:"symbol,omitempty"`
}

// Layout holds chart metadata.
type Layout struct {
	Title       string   `json:"title,omitempty"`
	XAxis       string   `json:"xaxis,omitempty"`
	YAxis       string   `json:"yaxis,omitempty"`
	BarMode     string   `json:"barmode,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

// Calculation maps names to float64, int, string or nil values.
type Calculation map[string]any

// Keys returns the calculation's names sorted.
func (c Calculation) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Err returns the data-insufficiency message if r is one.
func (r *Result) Err() (string, bool) {
	if r == nil || r.Kind != ResultCalculation || len(r.Calculation) != 1 {
		return "", false
	}
	msg, ok := r.Calculation[ErrorKey].(string)
	return msg, ok
}

// defaultColors is the series palette, cycled by index.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

const (
	colorAlert = "#EF4444"
	colorMuted = "#9CA3AF"
)

func color(i int) string { return defaultColors[i%len(defaultColors)] }

func chartResult(k Kind, title string, layout Layout, series ...Series) *Result {
	for i := range series {
		if series[i].Color == "" {
			series[i].Color = color(i)
		}
	}
	if layout.Title == "" {
		layout.Title = title
	}
	return &Result{Kind: ResultChart, Analysis: k, Title: title, Chart: &Chart{Series: series, Layout: layout}}
}

func calcResult(k Kind, title string, c Calculation) *Result {
	for name, v := range c {
		if f, ok := v.(float64); ok {
			c[name] = finiteOrNil(f)
		}
	}
	return &Result{Kind: ResultCalculation, Analysis: k, Title: title, Calculation: c}
}

func errorResult(k Kind, msg string) *Result {
	return calcResult(k, string(k), Calculation{ErrorKey: msg})
}

func floatsAny(xs []float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func stringsAny(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// repeat returns n copies of v, used for flat mean and limit lines.
func repeat(v float64, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// finiteOrNil keeps JSON encodable output when a statistic is undefined.
func finiteOrNil(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
