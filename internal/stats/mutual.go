package stats

import "math"

// MutualInformation returns Σ p(a,b)·ln(p(a,b)/(p(a)p(b))) over the observed
// label pairs of two equally long, already discretized samples. Fewer than
// two pairs yield 0.
func MutualInformation(as, bs []string) float64 {
	n := min(len(as), len(bs))
	if n < 2 {
		return 0
	}
	type pair struct{ a, b string }
	joint := make(map[pair]int)
	ma := make(map[string]int)
	mb := make(map[string]int)
	for i := 0; i < n; i++ {
		joint[pair{as[i], bs[i]}]++
		ma[as[i]]++
		mb[bs[i]]++
	}
	total := float64(n)
	var mi float64
	for p, c := range joint {
		pab := float64(c) / total
		pa := float64(ma[p.a]) / total
		pb := float64(mb[p.b]) / total
		mi += pab * math.Log(pab/(pa*pb))
	}
	return mi
}
