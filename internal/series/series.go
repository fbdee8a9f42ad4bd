// Package series turns records into time-ordered (t, y) points and slices
// them into the windows the time-based analyses work on.
package series

import (
	"sort"
	"time"

	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/infer"
)

const msPerDay = 86_400_000

// minPeriod is the smallest window SplitLastPeriod uses.
const minPeriod = 10

// Point is one observation: epoch milliseconds and a value.
type Point struct {
	T int64
	Y float64
}

// Time returns the point's instant in UTC.
func (p Point) Time() time.Time { return time.UnixMilli(p.T).UTC() }

// Extract keeps rows whose timeField converts under infer.ToEpochMs and
// whose valueField is a finite number, sorted ascending by time. Rows with
// equal timestamps keep their dataset order.
func Extract(timeField, valueField string, rows []dataset.Record) []Point {
	return extract(timeField, rows, func(r dataset.Record) (float64, bool) {
		return infer.ToNumber(r[valueField])
	})
}

// ExtractCounts is Extract with every convertible row contributing 1.
func ExtractCounts(timeField string, rows []dataset.Record) []Point {
	return extract(timeField, rows, func(dataset.Record) (float64, bool) { return 1, true })
}

func extract(timeField string, rows []dataset.Record, value func(dataset.Record) (float64, bool)) []Point {
	var pts []Point
	for _, r := range rows {
		t, ok := infer.ToEpochMs(r[timeField])
		if !ok {
			continue
		}
		y, ok := value(r)
		if !ok {
			continue
		}
		pts = append(pts, Point{T: t, Y: y})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].T < pts[j].T })
	return pts
}

// PeriodLength is max(10, floor(0.25*n)).
func PeriodLength(n int) int {
	return max(minPeriod, n/4)
}

// SplitLastPeriod returns the last PeriodLength(n) points as current and the
// same number of points right before them as previous, both clamped at the
// start of the slice.
func SplitLastPeriod(points []Point) (current, previous []Point) {
	n := len(points)
	period := PeriodLength(n)
	curStart := max(0, n-period)
	prevStart := max(0, curStart-period)
	return points[curStart:], points[prevStart:curStart]
}

// Day is one UTC calendar-day bucket.
type Day struct {
	Start time.Time
	Sum   float64
	Count int
}

// Label formats the bucket as YYYY-MM-DD.
func (d Day) Label() string { return d.Start.Format(time.DateOnly) }

// BucketByDay sums point values per UTC calendar day, ascending by day.
func BucketByDay(points []Point) []Day {
	idx := map[int64]int{}
	var days []Day
	for _, p := range points {
		key := floorDiv(p.T, msPerDay)
		i, ok := idx[key]
		if !ok {
			i = len(days)
			idx[key] = i
			days = append(days, Day{Start: time.UnixMilli(key * msPerDay).UTC()})
		}
		days[i].Sum += p.Y
		days[i].Count++
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Start.Before(days[j].Start) })
	return days
}

// floorDiv keeps pre-1970 timestamps in the right day.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Values returns the y component of points.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Y
	}
	return out
}

// Sum adds the y component of points.
func Sum(points []Point) float64 {
	var s float64
	for _, p := range points {
		s += p.Y
	}
	return s
}
