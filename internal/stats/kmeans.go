package stats

// Point2 is a 2D observation.
type Point2 struct {
	X, Y float64
}

// KMeans2D runs Lloyd's algorithm for a fixed number of iterations. Centers
// start at points[i*n/k]; assignment uses strict "<" on squared distance so
// ties go to the lowest center index; a center that receives no points keeps
// its position. The result depends only on the input order.
func KMeans2D(points []Point2, k, iterations int) (labels []int, centers []Point2) {
	n := len(points)
	if n == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, n)
	centers = make([]Point2, k)
	for i := range centers {
		centers[i] = points[i*n/k]
	}
	labels = make([]int, n)
	for iter := 0; iter < iterations; iter++ {
		for i, p := range points {
			best, bestD := 0, sqDist(p, centers[0])
			for c := 1; c < k; c++ {
				if d := sqDist(p, centers[c]); d < bestD {
					best, bestD = c, d
				}
			}
			labels[i] = best
		}
		sums := make([]Point2, k)
		counts := make([]int, k)
		for i, p := range points {
			c := labels[i]
			sums[c].X += p.X
			sums[c].Y += p.Y
			counts[c]++
		}
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			centers[c] = Point2{X: sums[c].X / float64(counts[c]), Y: sums[c].Y / float64(counts[c])}
		}
	}
	return labels, centers
}

func sqDist(a, b Point2) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
