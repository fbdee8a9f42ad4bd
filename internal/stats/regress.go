package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MovingAverage returns the trailing mean over window elements. The first
// window-1 positions average only the elements seen so far; there is no
// look-ahead and no padding. A window below 1 is treated as 1.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if window == 1 {
			out[i] = v
			continue
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Line is a fitted y = A + B*x.
type Line struct {
	A float64 // intercept
	B float64 // slope
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 { return l.A + l.B*x }

// LinearRegression fits ordinary least squares. It returns the zero Line for
// fewer than two points or when x has no variance.
func LinearRegression(xs, ys []float64) Line {
	if len(xs) != len(ys) || len(xs) < 2 || constant(xs) {
		return Line{}
	}
	a, b := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return Line{}
	}
	return Line{A: a, B: b}
}
