package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/series"
	"github.com/KaramelBytes/insightloom/internal/stats"
)

const (
	msPerDay       = 86_400_000
	anomalyMin     = 5
	forecastMin    = 5
	forecastSteps  = 10
	periodMin      = 2
	controlMin     = 2
	decomposeMin   = 2
	controlSigma   = 3
	spikeSigma     = 3
	trendSigma     = 2
	controlWinMin  = 5
	controlWinMax  = 20
	decomposeWinLo = 7
	decomposeWinHi = 30
)

// timeSeries is a resolved and extracted series.
type timeSeries struct {
	TimeField  string
	ValueField string
	Points     []series.Point
}

func (ts timeSeries) times() []any {
	out := make([]any, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = timeLabel(p.T)
	}
	return out
}

func (ts timeSeries) values() []float64 { return series.Values(ts.Points) }

func timeLabel(ms int64) string { return time.UnixMilli(ms).UTC().Format(time.RFC3339) }

// extract resolves fields and pulls points, returning an error result when a
// required field category is missing or fewer than need points remain.
func (tf TimeFields) extract(k Kind, ds *dataset.Dataset, need int) (timeSeries, *Result) {
	timeField, valueField := tf.resolve(ds)
	if timeField == "" {
		return timeSeries{}, errorResult(k, "No date-like field found")
	}
	if valueField == "" {
		return timeSeries{}, errorResult(k, "No numeric field found")
	}
	ts := timeSeries{TimeField: timeField, ValueField: valueField, Points: series.Extract(timeField, valueField, ds.Rows)}
	if len(ts.Points) < need {
		return ts, errorResult(k, fmt.Sprintf("Need at least %d time series points, found %d", need, len(ts.Points)))
	}
	return ts, nil
}

func (a Trend) run(ds *dataset.Dataset) *Result {
	timeField, valueField := a.resolve(ds)
	if timeField == "" {
		return errorResult(a.Kind(), "No date-like field found")
	}
	var pts []series.Point
	name := "Records"
	if valueField == "" {
		pts = series.ExtractCounts(timeField, ds.Rows)
	} else {
		pts = series.Extract(timeField, valueField, ds.Rows)
		name = valueField
	}
	if len(pts) == 0 {
		return errorResult(a.Kind(), "No time series points found")
	}
	days := series.BucketByDay(pts)
	x := make([]any, len(days))
	y := make([]any, len(days))
	for i, d := range days {
		x[i] = d.Label()
		y[i] = d.Sum
	}
	return chartResult(a.Kind(), fmt.Sprintf("%s over time", name),
		Layout{XAxis: timeField, YAxis: name},
		Series{Type: SeriesLine, Name: name, Mode: "lines+markers", X: x, Y: y})
}

func (a YearToDate) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, 1)
	if bad != nil {
		return bad
	}
	first := ts.Points[0].Time()
	start := time.Date(first.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	var x, y []any
	var total float64
	for _, p := range ts.Points {
		if p.T < start {
			continue
		}
		total += p.Y
		x = append(x, timeLabel(p.T))
		y = append(y, total)
	}
	return chartResult(a.Kind(), fmt.Sprintf("%s year to date (%d)", ts.ValueField, first.Year()),
		Layout{XAxis: ts.TimeField, YAxis: "Cumulative " + ts.ValueField,
			Annotations: []string{fmt.Sprintf("Total: %.4g", total)}},
		Series{Type: SeriesLine, Name: "Cumulative " + ts.ValueField, Mode: "lines", X: x, Y: y})
}

func (a ProcessControl) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, controlMin)
	if bad != nil {
		return bad
	}
	vals := ts.values()
	n := len(vals)
	mean, sd := stats.Mean(vals), stats.StdDev(vals)
	ucl, lcl := mean+controlSigma*sd, mean-controlSigma*sd

	colors := make([]string, n)
	out := 0
	for i, v := range vals {
		colors[i] = color(0)
		if v > ucl || v < lcl {
			colors[i] = colorAlert
			out++
		}
	}
	x := ts.times()
	list := []Series{
		{Type: SeriesLine, Name: ts.ValueField, Mode: "lines+markers", X: x, Y: floatsAny(vals), Marker: &Marker{Colors: colors}},
		{Type: SeriesLine, Name: "Mean", Mode: "lines", X: x, Y: repeat(mean, n), Color: colorMuted},
		{Type: SeriesLine, Name: "UCL", Mode: "lines", X: x, Y: repeat(ucl, n), Color: colorAlert},
		{Type: SeriesLine, Name: "LCL", Mode: "lines", X: x, Y: repeat(lcl, n), Color: colorAlert},
	}
	title := "Control chart of " + ts.ValueField
	if a.Rolling {
		w := stats.Clamp(n/10, controlWinMin, controlWinMax)
		list = append(list, Series{Type: SeriesLine, Name: fmt.Sprintf("Rolling mean (%d)", w), Mode: "lines",
			X: x, Y: floatsAny(stats.MovingAverage(vals, w)), Color: color(1)})
		title += " with rolling mean"
	}
	return chartResult(a.Kind(), title, Layout{
		XAxis: ts.TimeField, YAxis: ts.ValueField,
		Annotations: []string{
			fmt.Sprintf("Mean %.4g, UCL %.4g, LCL %.4g", mean, ucl, lcl),
			fmt.Sprintf("%d points outside control limits", out),
		},
	}, list...)
}

func (a AnomalySpike) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, anomalyMin)
	if bad != nil {
		return bad
	}
	vals := ts.values()
	limit := stats.Mean(vals) + spikeSigma*stats.StdDev(vals)
	return anomalyChart(a.Kind(), ts, fmt.Sprintf("Threshold: mean + 3σ = %.4g", limit),
		func(y float64) bool { return y > limit })
}

func (a AnomalyTrend) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, anomalyMin)
	if bad != nil {
		return bad
	}
	vals := ts.values()
	mean, sd := stats.Mean(vals), stats.StdDev(vals)
	return anomalyChart(a.Kind(), ts, fmt.Sprintf("Band: %.4g ± 2σ (σ = %.4g)", mean, sd),
		func(y float64) bool { return math.Abs(y-mean) > trendSigma*sd })
}

func anomalyChart(k Kind, ts timeSeries, rule string, flagged func(float64) bool) *Result {
	var ax, ay []any
	for _, p := range ts.Points {
		if flagged(p.Y) {
			ax = append(ax, timeLabel(p.T))
			ay = append(ay, p.Y)
		}
	}
	return chartResult(k, "Anomalies in "+ts.ValueField,
		Layout{XAxis: ts.TimeField, YAxis: ts.ValueField,
			Annotations: []string{rule, fmt.Sprintf("%d anomalies flagged", len(ax))}},
		Series{Type: SeriesLine, Name: ts.ValueField, Mode: "lines", X: ts.times(), Y: floatsAny(ts.values())},
		Series{Type: SeriesScatter, Name: "Anomalies", Mode: "markers", X: ax, Y: ay, Color: colorAlert,
			Marker: &Marker{Color: colorAlert, Size: 10}},
	)
}

// periodSplit holds the current and previous windows and their comparison.
type periodSplit struct {
	Current, Previous []series.Point
	CurSum, PrevSum   float64
	Change            float64
	// ChangePct is nil when the previous period sums to zero.
	ChangePct any
}

func splitPeriods(pts []series.Point) periodSplit {
	cur, prev := series.SplitLastPeriod(pts)
	s := periodSplit{Current: cur, Previous: prev, CurSum: series.Sum(cur), PrevSum: series.Sum(prev)}
	s.Change = s.CurSum - s.PrevSum
	if s.PrevSum != 0 {
		s.ChangePct = s.Change / s.PrevSum * 100
	}
	return s
}

func (s periodSplit) annotations() []string {
	pct := "n/a"
	if v, ok := s.ChangePct.(float64); ok {
		pct = fmt.Sprintf("%+.2f%%", v)
	}
	return []string{
		fmt.Sprintf("Current: %.4g (%d points)", s.CurSum, len(s.Current)),
		fmt.Sprintf("Previous: %.4g (%d points)", s.PrevSum, len(s.Previous)),
		fmt.Sprintf("Change: %+.4g (%s)", s.Change, pct),
	}
}

func (a PeriodOverPeriod) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, periodMin)
	if bad != nil {
		return bad
	}
	s := splitPeriods(ts.Points)
	return chartResult(a.Kind(), ts.ValueField+": current vs previous period",
		Layout{YAxis: ts.ValueField, Annotations: s.annotations()},
		Series{Type: SeriesBar, Name: ts.ValueField,
			X: []any{"Previous Period", "Current Period"}, Y: []any{s.PrevSum, s.CurSum},
			Marker: &Marker{Colors: []string{colorMuted, color(0)}}})
}

func (a PeriodChanges) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, periodMin)
	if bad != nil {
		return bad
	}
	s := splitPeriods(ts.Points)
	overlay := func(name string, pts []series.Point, c string) Series {
		x := make([]any, len(pts))
		text := make([]string, len(pts))
		for i, p := range pts {
			x[i] = i + 1
			text[i] = timeLabel(p.T)
		}
		return Series{Type: SeriesLine, Name: name, Mode: "lines+markers", X: x, Y: floatsAny(series.Values(pts)), Text: text, Color: c}
	}
	return chartResult(a.Kind(), ts.ValueField+": period changes",
		Layout{XAxis: "Position in period", YAxis: ts.ValueField, Annotations: s.annotations()},
		overlay("Previous Period", s.Previous, colorMuted),
		overlay("Current Period", s.Current, color(0)))
}

func (a PeriodChangesPercent) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, periodMin)
	if bad != nil {
		return bad
	}
	s := splitPeriods(ts.Points)
	return calcResult(a.Kind(), ts.ValueField+": period change", Calculation{
		"Current Period":  s.CurSum,
		"Previous Period": s.PrevSum,
		"Change":          s.Change,
		"Change %":        s.ChangePct,
	})
}

func (a Forecast) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, forecastMin)
	if bad != nil {
		return bad
	}
	pts := ts.Points
	n := len(pts)
	t0 := pts[0].T
	xs := make([]float64, n)
	for i, p := range pts {
		xs[i] = float64(p.T-t0) / msPerDay
	}
	line := stats.LinearRegression(xs, ts.values())

	fitted := make([]float64, n)
	for i, x := range xs {
		fitted[i] = line.At(x)
	}
	stride := forecastStride(pts)
	fx := make([]any, forecastSteps)
	fy := make([]any, forecastSteps)
	last := pts[n-1].T
	for i := range forecastSteps {
		t := last + int64(i+1)*stride
		fx[i] = timeLabel(t)
		fy[i] = line.At(float64(t-t0) / msPerDay)
	}
	x := ts.times()
	return chartResult(a.Kind(), ts.ValueField+" trend with forecast",
		Layout{XAxis: ts.TimeField, YAxis: ts.ValueField,
			Annotations: []string{fmt.Sprintf("y = %.4g + %.4g per day", line.A, line.B)}},
		Series{Type: SeriesLine, Name: ts.ValueField, Mode: "lines+markers", X: x, Y: floatsAny(ts.values())},
		Series{Type: SeriesLine, Name: "Trend", Mode: "lines", X: x, Y: floatsAny(fitted), Color: colorMuted},
		Series{Type: SeriesLine, Name: "Forecast", Mode: "lines+markers", X: fx, Y: fy, Color: color(2)},
	)
}

// forecastStride is the last observed time step. Duplicate trailing
// timestamps fall back to the mean step, then to one day.
func forecastStride(pts []series.Point) int64 {
	n := len(pts)
	if step := pts[n-1].T - pts[n-2].T; step > 0 {
		return step
	}
	if span := pts[n-1].T - pts[0].T; span > 0 {
		return max(1, span/int64(n-1))
	}
	return msPerDay
}

func (a Decomposition) run(ds *dataset.Dataset) *Result {
	ts, bad := a.extract(a.Kind(), ds, decomposeMin)
	if bad != nil {
		return bad
	}
	vals := ts.values()
	w := stats.Clamp(len(vals)/8, decomposeWinLo, decomposeWinHi)
	trend := stats.MovingAverage(vals, w)
	resid := make([]float64, len(vals))
	for i := range vals {
		resid[i] = vals[i] - trend[i]
	}
	x := ts.times()
	return chartResult(a.Kind(), ts.ValueField+" decomposition",
		Layout{XAxis: ts.TimeField, YAxis: ts.ValueField,
			Annotations: []string{fmt.Sprintf("Trend: moving average, window %d", w)}},
		Series{Type: SeriesLine, Name: "Observed", Mode: "lines", X: x, Y: floatsAny(vals)},
		Series{Type: SeriesLine, Name: "Trend", Mode: "lines", X: x, Y: floatsAny(trend)},
		Series{Type: SeriesLine, Name: "Residual", Mode: "lines", X: x, Y: floatsAny(resid)},
	)
}
