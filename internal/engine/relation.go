package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/infer"
	"github.com/KaramelBytes/insightloom/internal/stats"
)

const (
	miMaxFields   = 6
	miSampleCap   = 5000
	miLabelRunes  = 40
	clusterK      = 3
	clusterIters  = 20
	clusterSample = 1500
)

func (a Correlation) run(ds *dataset.Dataset) *Result {
	fields := filter(a.Fields, numericIn(ds))
	if len(fields) < 2 {
		return errorResult(a.Kind(), "Correlation needs at least 2 numeric fields")
	}
	m := matrix(len(fields), 1, func(i, j int) float64 {
		xs, ys := pairs(fields[i], fields[j], ds.Rows, 0)
		return stats.Pearson(xs, ys)
	})
	return heatmap(a.Kind(), "Correlation matrix", fields, m)
}

func (a MutualInformation) run(ds *dataset.Dataset) *Result {
	fields := a.Fields
	if len(fields) == 0 {
		fields = ds.Columns[:min(miMaxFields, len(ds.Columns))]
	}
	if len(fields) < 2 {
		return errorResult(a.Kind(), "Mutual information needs at least 2 fields")
	}
	m := matrix(len(fields), 0, func(i, j int) float64 {
		as, bs := labelPairs(fields[i], fields[j], ds.Rows)
		return stats.MutualInformation(as, bs)
	})
	return heatmap(a.Kind(), "Mutual information (nats)", fields, m)
}

// matrix fills a symmetric n×n matrix from cell(i, j) for i < j and puts
// diag on the diagonal.
func matrix(n int, diag float64, cell func(i, j int) float64) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = diag
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := cell(i, j)
			m[i][j], m[j][i] = v, v
		}
	}
	return m
}

func heatmap(k Kind, title string, fields []string, m [][]float64) *Result {
	var text []string
	for _, row := range m {
		for _, v := range row {
			text = append(text, strconv.FormatFloat(v, 'f', 3, 64))
		}
	}
	axis := stringsAny(fields)
	return chartResult(k, title, Layout{},
		Series{Type: SeriesHeatmap, Name: title, X: axis, Y: axis, Z: m, Text: text})
}

// labelPairs discretizes rows where both fields are present, capped at
// miSampleCap pairs.
func labelPairs(a, b string, rows []dataset.Record) (as, bs []string) {
	for _, r := range rows {
		va, vb := r[a], r[b]
		if dataset.IsNull(va) || dataset.IsNull(vb) {
			continue
		}
		as = append(as, miLabel(va))
		bs = append(bs, miLabel(vb))
		if len(as) == miSampleCap {
			break
		}
	}
	return as, bs
}

// miLabel bins numbers to 0.1-wide labels and truncates text.
func miLabel(v any) string {
	if f, ok := infer.ToNumber(v); ok {
		return strconv.FormatFloat(math.Floor(f*10)/10, 'f', -1, 64)
	}
	s := []rune(label(v))
	if len(s) > miLabelRunes {
		s = s[:miLabelRunes]
	}
	return string(s)
}

func (a RelativeImportance) run(ds *dataset.Dataset) *Result {
	all := append(append([]string(nil), a.Features...), a.Target)
	fields := filter(all, numericIn(ds))
	if len(fields) < 2 {
		return errorResult(a.Kind(), "Relative importance needs at least 2 numeric fields")
	}
	target := fields[len(fields)-1]
	t := newTally()
	for _, f := range fields[:len(fields)-1] {
		xs, ys := pairs(f, target, ds.Rows, 0)
		t.add(f, math.Abs(stats.Pearson(xs, ys)))
	}
	x, y := splitEntries(t.ranked())
	return chartResult(a.Kind(), "Relative importance for "+target,
		Layout{XAxis: "Feature", YAxis: "|r| with " + target},
		Series{Type: SeriesBar, Name: "|r|", X: x, Y: y})
}

func (a Clustering) run(ds *dataset.Dataset) *Result {
	numeric := numericIn(ds)
	first := resolve(a.Fields, numeric, ds.Columns)
	second := resolve(a.Fields, numeric, ds.Columns, first)
	if first == "" || second == "" {
		return errorResult(a.Kind(), "Clustering needs at least 2 numeric fields")
	}
	xs, ys := pairs(first, second, ds.Rows, clusterSample)
	if len(xs) == 0 {
		return errorResult(a.Kind(), fmt.Sprintf("No rows with numeric %s and %s", first, second))
	}
	pts := make([]stats.Point2, len(xs))
	for i := range xs {
		pts[i] = stats.Point2{X: xs[i], Y: ys[i]}
	}
	labels, centers := stats.KMeans2D(pts, clusterK, clusterIters)

	out := make([]Series, 0, len(centers)+1)
	for c := range centers {
		var cx, cy []any
		for i, l := range labels {
			if l == c {
				cx = append(cx, pts[i].X)
				cy = append(cy, pts[i].Y)
			}
		}
		out = append(out, Series{Type: SeriesScatter, Name: fmt.Sprintf("Cluster %d", c+1), Mode: "markers", X: cx, Y: cy})
	}
	cx := make([]any, len(centers))
	cy := make([]any, len(centers))
	for i, c := range centers {
		cx[i], cy[i] = c.X, c.Y
	}
	out = append(out, Series{Type: SeriesScatter, Name: "Centers", Mode: "markers", X: cx, Y: cy,
		Color: "#111827", Marker: &Marker{Symbol: "x", Size: 14}})
	return chartResult(a.Kind(), fmt.Sprintf("Clusters of %s and %s", first, second),
		Layout{XAxis: first, YAxis: second,
			Annotations: []string{fmt.Sprintf("k=%d over %d points", len(centers), len(pts))}},
		out...)
}
