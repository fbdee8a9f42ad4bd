package engine

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/infer"
)

// unknownLabel replaces missing group values.
const unknownLabel = "Unknown"

type fieldPred func(field string) bool

// resolve returns the first selected field satisfying pred, else the first
// candidate satisfying it, skipping excluded names. Empty when none match.
func resolve(selected []string, pred fieldPred, candidates []string, exclude ...string) string {
	for _, group := range [][]string{selected, candidates} {
		for _, f := range group {
			if f == "" || slices.Contains(exclude, f) {
				continue
			}
			if pred(f) {
				return f
			}
		}
	}
	return ""
}

// filter keeps the fields satisfying pred, in order.
func filter(fields []string, pred fieldPred) []string {
	var out []string
	for _, f := range fields {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}

func numericIn(ds *dataset.Dataset) fieldPred {
	return func(f string) bool { return infer.IsMostlyNumeric(f, ds.Rows) }
}

func dateIn(ds *dataset.Dataset) fieldPred {
	return func(f string) bool { return infer.IsMostlyDateLike(f, ds.Rows) }
}

// textDateIn matches date-like fields that are not plain numbers. Every
// finite number converts as a spreadsheet serial, so numeric columns only
// serve as time when nothing else does.
func textDateIn(ds *dataset.Dataset) fieldPred {
	numeric, date := numericIn(ds), dateIn(ds)
	return func(f string) bool { return date(f) && !numeric(f) }
}

// resolve picks the time and value fields. An explicit [time, value] pair
// wins even when the time field holds serial numbers, and so does a lone
// selected field when the dataset has no text dates. A missing value field is
// returned empty; callers decide whether to count rows instead.
func (tf TimeFields) resolve(ds *dataset.Dataset) (timeField, valueField string) {
	sel := tf.Selected
	date := dateIn(ds)
	textDate := textDateIn(ds)

	timeField = resolve(sel, textDate, nil)
	if timeField == "" && len(sel) == 2 && date(sel[0]) {
		timeField = sel[0]
	}
	if timeField == "" {
		timeField = resolve(nil, textDate, ds.Columns)
	}
	if timeField == "" && len(sel) == 1 && date(sel[0]) {
		timeField = sel[0]
	}
	valueField = resolve(sel, numericIn(ds), ds.Columns, timeField)
	if timeField == "" {
		timeField = resolve(sel, date, ds.Columns, valueField)
	}
	return timeField, valueField
}

// label renders a grouping key. Missing values become "Unknown".
func label(v any) string {
	switch x := v.(type) {
	case nil:
		return unknownLabel
	case string:
		if strings.TrimSpace(x) == "" {
			return unknownLabel
		}
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := infer.ToNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// numbers collects the finite numeric values of field.
func numbers(field string, rows []dataset.Record) []float64 {
	var out []float64
	for _, r := range rows {
		if f, ok := infer.ToNumber(r[field]); ok {
			out = append(out, f)
		}
	}
	return out
}

// pairs collects rows where both fields are finite numbers, up to limit
// pairs when limit > 0.
func pairs(a, b string, rows []dataset.Record, limit int) (xs, ys []float64) {
	for _, r := range rows {
		x, ok := infer.ToNumber(r[a])
		if !ok {
			continue
		}
		y, ok := infer.ToNumber(r[b])
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
		if limit > 0 && len(xs) == limit {
			break
		}
	}
	return xs, ys
}

// entry is one aggregated group.
type entry struct {
	Label string
	Value float64
}

// tally accumulates values per label, remembering first-seen order so that
// ties keep insertion order after a stable sort.
type tally struct {
	index   map[string]int
	entries []entry
}

func newTally() *tally { return &tally{index: map[string]int{}} }

func (t *tally) add(key string, v float64) {
	i, ok := t.index[key]
	if !ok {
		i = len(t.entries)
		t.index[key] = i
		t.entries = append(t.entries, entry{Label: key})
	}
	t.entries[i].Value += v
}

func (t *tally) get(key string) float64 {
	if i, ok := t.index[key]; ok {
		return t.entries[i].Value
	}
	return 0
}

func (t *tally) len() int { return len(t.entries) }

// ranked returns a copy sorted by value descending, ties in insertion order.
func (t *tally) ranked() []entry {
	out := slices.Clone(t.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// topWithOther keeps the first n entries and folds the rest into "Other",
// omitted when the remainder sums to zero.
func topWithOther(ranked []entry, n int) []entry {
	if len(ranked) <= n {
		return ranked
	}
	var rest float64
	for _, e := range ranked[n:] {
		rest += e.Value
	}
	out := slices.Clone(ranked[:n])
	if rest != 0 {
		out = append(out, entry{Label: "Other", Value: rest})
	}
	return out
}

func splitEntries(es []entry) (labels []any, values []any) {
	labels = make([]any, len(es))
	values = make([]any, len(es))
	for i, e := range es {
		labels[i] = e.Label
		values[i] = e.Value
	}
	return labels, values
}
