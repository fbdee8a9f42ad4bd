package engine

import (
	"fmt"

	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/infer"
	"github.com/KaramelBytes/insightloom/internal/stats"
)

const (
	rankingTop       = 10
	groupedMaxGroups = 15
	groupedMaxItems  = 10
	breakdownTop     = 25
	geoTop           = 30
	overviewFields   = 5
	comparisonFields = 8
	comparisonTop    = 25
)

func (a KPI) run(ds *dataset.Dataset) *Result {
	measures := filter(a.Measures, numericIn(ds))
	if len(measures) == 0 {
		return errorResult(a.Kind(), "No numeric fields selected")
	}
	calc := Calculation{}
	for _, f := range measures {
		vals := numbers(f, ds.Rows)
		calc[f+" Sum"] = stats.Sum(vals)
		calc[f+" Average"] = stats.Mean(vals)
		calc[f+" Count"] = stats.Count(vals)
	}
	return calcResult(a.Kind(), "Key measures", calc)
}

// valueOf returns the row's contribution: its numeric value when summing,
// 1 when counting. Non-numeric values add nothing to a sum.
func valueOf(r dataset.Record, valueField string) float64 {
	if valueField == "" {
		return 1
	}
	v, _ := infer.ToNumber(r[valueField])
	return v
}

// sumField returns valueField when it is mostly numeric, else "" so callers
// fall back to counting.
func sumField(ds *dataset.Dataset, valueField string) string {
	if valueField != "" && infer.IsMostlyNumeric(valueField, ds.Rows) {
		return valueField
	}
	return ""
}

func measureName(valueField string) string {
	if valueField == "" {
		return "Count"
	}
	return "Total " + valueField
}

func (a Ranking) run(ds *dataset.Dataset) *Result {
	if ds.Len() == 0 {
		return errorResult(a.Kind(), "No records to rank")
	}
	value := sumField(ds, a.Value)
	t := newTally()
	for _, r := range ds.Rows {
		t.add(label(r[a.Group]), valueOf(r, value))
	}
	top := t.ranked()
	if len(top) > rankingTop {
		top = top[:rankingTop]
	}
	x, y := splitEntries(top)
	title := fmt.Sprintf("Top %s by %s", a.Group, measureName(value))
	return chartResult(a.Kind(), title,
		Layout{XAxis: a.Group, YAxis: measureName(value)},
		Series{Type: SeriesBar, Name: measureName(value), X: x, Y: y})
}

func (a RankingGrouped) run(ds *dataset.Dataset) *Result {
	if ds.Len() == 0 {
		return errorResult(a.Kind(), "No records to rank")
	}
	value := sumField(ds, a.Value)
	groups, items := newTally(), newTally()
	cells := map[string]*tally{}
	for _, r := range ds.Rows {
		g, it := label(r[a.Group]), label(r[a.Item])
		v := valueOf(r, value)
		groups.add(g, v)
		items.add(it, v)
		if cells[g] == nil {
			cells[g] = newTally()
		}
		cells[g].add(it, v)
	}

	topGroups := groups.ranked()
	if len(topGroups) > groupedMaxGroups {
		topGroups = topGroups[:groupedMaxGroups]
	}
	topItems := items.ranked()
	if len(topItems) > groupedMaxItems {
		topItems = topItems[:groupedMaxItems]
	}
	x, _ := splitEntries(topGroups)
	out := make([]Series, 0, len(topItems))
	for _, it := range topItems {
		ys := make([]any, len(topGroups))
		for i, g := range topGroups {
			ys[i] = cells[g.Label].get(it.Label)
		}
		out = append(out, Series{Type: SeriesBar, Name: it.Label, X: x, Y: ys})
	}
	title := fmt.Sprintf("%s by %s and %s", measureName(value), a.Group, a.Item)
	return chartResult(a.Kind(), title,
		Layout{XAxis: a.Group, YAxis: measureName(value), BarMode: "group"}, out...)
}

func (a Breakdown) run(ds *dataset.Dataset) *Result {
	if ds.Len() == 0 {
		return errorResult(a.Kind(), "No records to break down")
	}
	t := newTally()
	for _, r := range ds.Rows {
		t.add(label(r[a.Category]), 1)
	}
	x, y := splitEntries(topWithOther(t.ranked(), breakdownTop))
	return chartResult(a.Kind(), "Breakdown of "+a.Category,
		Layout{XAxis: a.Category, YAxis: "Count"},
		Series{Type: SeriesBar, Name: a.Category, X: x, Y: y})
}

func (a GeoBreakdown) run(ds *dataset.Dataset) *Result {
	if ds.Len() == 0 {
		return errorResult(a.Kind(), "No records to break down")
	}
	value := sumField(ds, a.Value)
	t := newTally()
	for _, r := range ds.Rows {
		t.add(label(r[a.Location]), valueOf(r, value))
	}
	x, y := splitEntries(topWithOther(t.ranked(), geoTop))
	return chartResult(a.Kind(), fmt.Sprintf("%s by %s", measureName(value), a.Location),
		Layout{XAxis: a.Location, YAxis: measureName(value)},
		Series{Type: SeriesBar, Name: a.Location, X: x, Y: y})
}

func (a Overview) run(ds *dataset.Dataset) *Result {
	fields := a.Fields
	if len(fields) == 0 {
		fields = ds.Columns[:min(overviewFields, len(ds.Columns))]
	}
	calc := Calculation{"Records": ds.Len()}
	for _, f := range fields {
		seen := map[string]struct{}{}
		for _, r := range ds.Rows {
			if v := r[f]; !dataset.IsNull(v) {
				seen[label(v)] = struct{}{}
			}
		}
		calc[f+" Unique"] = len(seen)
	}
	return calcResult(a.Kind(), "Overview", calc)
}

func (a Comparison) run(ds *dataset.Dataset) *Result {
	numeric := numericIn(ds)
	if len(a.Fields) == 2 && numeric(a.Fields[1]) {
		return a.byCategory(ds, a.Fields[0], a.Fields[1])
	}
	measures := filter(a.Fields, numeric)
	if len(measures) == 0 {
		measures = filter(ds.Columns, numeric)
	}
	if len(measures) == 0 {
		return errorResult(a.Kind(), "No numeric fields to compare")
	}
	measures = measures[:min(comparisonFields, len(measures))]
	t := newTally()
	for _, f := range measures {
		t.add(f, stats.Mean(numbers(f, ds.Rows)))
	}
	x, y := splitEntries(t.ranked())
	return chartResult(a.Kind(), "Average by field",
		Layout{XAxis: "Field", YAxis: "Average"},
		Series{Type: SeriesBar, Name: "Average", X: x, Y: y})
}

func (a Comparison) byCategory(ds *dataset.Dataset, category, value string) *Result {
	sums, counts := newTally(), newTally()
	for _, r := range ds.Rows {
		v, ok := infer.ToNumber(r[value])
		if !ok {
			continue
		}
		k := label(r[category])
		sums.add(k, v)
		counts.add(k, 1)
	}
	means := newTally()
	for _, e := range sums.entries {
		means.add(e.Label, e.Value/counts.get(e.Label))
	}
	top := means.ranked()
	if len(top) > comparisonTop {
		top = top[:comparisonTop]
	}
	if len(top) == 0 {
		return errorResult(a.Kind(), fmt.Sprintf("No numeric values in %s", value))
	}
	x, y := splitEntries(top)
	return chartResult(a.Kind(), fmt.Sprintf("Average %s by %s", value, category),
		Layout{XAxis: category, YAxis: "Average " + value},
		Series{Type: SeriesBar, Name: "Average " + value, X: x, Y: y})
}

func (a Histogram) run(ds *dataset.Dataset) *Result {
	field := a.Field
	if field == "" && len(ds.Columns) > 0 {
		field = ds.Columns[0]
	}
	s := Series{Type: SeriesHistogram, Name: field}
	if field != "" && infer.IsMostlyNumeric(field, ds.Rows) {
		s.X = floatsAny(numbers(field, ds.Rows))
	} else {
		var labels []string
		for _, r := range ds.Rows {
			if v := r[field]; !dataset.IsNull(v) {
				labels = append(labels, label(v))
			}
		}
		s.X = stringsAny(labels)
	}
	title := "Distribution"
	if field != "" {
		title = "Distribution of " + field
	}
	var notes []string
	if a.Requested != "" {
		notes = append(notes, fmt.Sprintf("Unknown analysis type %q, showing a histogram", a.Requested))
	}
	return chartResult(a.Kind(), title, Layout{XAxis: field, YAxis: "Count", Annotations: notes}, s)
}
