// Package stats provides the numeric primitives behind the analyses.
// Inputs are finite float64 slices; callers filter nulls and non-numbers.
// Standard deviation is the sample (n-1) estimator throughout.
package stats

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// modePrecision is the rounding grid applied before counting frequencies.
const modePrecision = 1e6

// Sum returns the sum of values.
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}

// Count returns len(values); it exists so KPI code reads uniformly.
func Count(values []float64) int { return len(values) }

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation; 0 when n < 2.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Min and Max return 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// Quantile returns the p-th quantile using linear interpolation between the
// two bracketing order statistics. The input is not modified.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median is Quantile(values, 0.5).
func Median(values []float64) float64 { return Quantile(values, 0.5) }

// Mode returns every value sharing the highest frequency, ascending.
// Values are rounded to 1e-6 first. When no value repeats the result is
// empty: there is no meaningful mode.
func Mode(values []float64) []float64 {
	counts := map[float64]int{}
	best := 0
	for _, v := range values {
		k := math.Round(v*modePrecision) / modePrecision
		counts[k]++
		if counts[k] > best {
			best = counts[k]
		}
	}
	if best <= 1 {
		return nil
	}
	var out []float64
	for k, c := range counts {
		if c == best {
			out = append(out, k)
		}
	}
	sort.Float64s(out)
	return out
}

// Skewness returns the adjusted Fisher-Pearson sample skewness
// n/((n-1)(n-2)) * Σ((x-mean)/s)^3, or NaN when n < 3 or s == 0.
func Skewness(values []float64) float64 {
	if len(values) < 3 || constant(values) {
		return math.NaN()
	}
	return stat.Skew(values, nil)
}

// Pearson returns the correlation of paired samples; 0 with fewer than two
// pairs or when either side has zero variance.
func Pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 || constant(xs) || constant(ys) {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return max(-1, min(1, r))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
