package stats

import (
	"math"
	"slices"
	"sort"
)

// robustScale converts a MAD into a standard-deviation estimate under normality.
const robustScale = 0.6745

// MedianMAD returns the median and the median absolute deviation of values.
func MedianMAD(values []float64) (median, mad float64) {
	if len(values) == 0 {
		return 0, 0
	}
	cp := slices.Clone(values)
	sort.Float64s(cp)
	median = quantileSorted(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantileSorted(dev, 0.5)
	return median, mad
}

// RobustOutliers counts values whose modified z-score 0.6745*(x-median)/MAD
// exceeds threshold in absolute value, and reports the largest |z| seen.
// A zero MAD yields no outliers.
func RobustOutliers(values []float64, threshold float64) (count int, maxAbsZ float64) {
	median, mad := MedianMAD(values)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range values {
		z := math.Abs(robustScale * (v - median) / mad)
		if z > maxAbsZ {
			maxAbsZ = z
		}
		if z > threshold {
			count++
		}
	}
	return count, maxAbsZ
}
