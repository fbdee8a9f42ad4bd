package engine

// Kind names one analysis in the catalog. The string values are what users
// pick and what batch plans contain.
type Kind string

const (
	KindKPI                   Kind = "Calculated Measure (KPI)"
	KindRanking               Kind = "Ranking"
	KindRankingGrouped        Kind = "Ranking (grouped)"
	KindBreakdown             Kind = "Breakdown"
	KindGeoBreakdown          Kind = "Breakdown (geo spatial)"
	KindOverview              Kind = "Overview"
	KindTrend                 Kind = "Trend Over Time"
	KindComparison            Kind = "Comparison"
	KindRelativeImportance    Kind = "Relative Importance"
	KindYearToDate            Kind = "Year to Date"
	KindProcessControl        Kind = "Process Control (mean)"
	KindProcessControlRolling Kind = "Process Control (rolling mean)"
	KindCorrelation           Kind = "Correlation"
	KindMutualInformation     Kind = "Mutual Information"
	KindClustering            Kind = "Clustering (k-means)"
	KindAnomalySpike          Kind = "Anomaly (spike)"
	KindAnomalyTrend          Kind = "Anomaly (trend)"
	KindPeriodOverPeriod      Kind = "Period over Period"
	KindPeriodChanges         Kind = "Period Changes"
	KindPeriodChangesPercent  Kind = "Period Changes (%)"
	KindForecast              Kind = "Trend with Forecast"
	KindDecomposition         Kind = "Time Series Decomposition"

	// KindHistogram is the fallback for type names outside the catalog.
	// It has no Requirement and is never listed.
	KindHistogram Kind = "Histogram"
)

// Requirement is the field-count contract for one Kind.
type Requirement struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	MinFields   int    `json:"minFields" yaml:"min_fields"`
	MaxFields   int    `json:"maxFields" yaml:"max_fields"`
	Description string `json:"description" yaml:"description"`
}

// Allows reports whether n selected fields satisfy the contract.
func (r Requirement) Allows(n int) bool { return n >= r.MinFields && n <= r.MaxFields }

var catalog = []Requirement{
	{KindKPI, 1, 10, "Sum, average and count for each selected numeric field"},
	{KindRanking, 1, 2, "Top 10 groups by summed value or by occurrence count"},
	{KindRankingGrouped, 2, 3, "Items ranked within up to 15 groups"},
	{KindBreakdown, 1, 1, "Frequency of each category, top 25 plus Other"},
	{KindGeoBreakdown, 1, 2, "Totals per location, top 30 plus Other"},
	{KindOverview, 0, 5, "Record count and distinct values per field"},
	{KindTrend, 0, 2, "Daily totals over time"},
	{KindComparison, 1, 8, "Mean value per category, or means of numeric fields"},
	{KindRelativeImportance, 2, 10, "Absolute correlation of each field with the last (target) field"},
	{KindYearToDate, 0, 2, "Cumulative total since January 1"},
	{KindProcessControl, 0, 2, "Series with mean line and 3-sigma control limits"},
	{KindProcessControlRolling, 0, 2, "Control chart plus rolling mean"},
	{KindCorrelation, 2, 10, "Pearson correlation matrix"},
	{KindMutualInformation, 0, 6, "Pairwise mutual information matrix"},
	{KindClustering, 0, 2, "k-means (k=3) over two numeric fields"},
	{KindAnomalySpike, 0, 2, "Points above mean + 3 sigma"},
	{KindAnomalyTrend, 0, 2, "Points more than 2 sigma from the mean"},
	{KindPeriodOverPeriod, 0, 2, "Current period total against the previous period"},
	{KindPeriodChanges, 0, 2, "Current and previous period overlaid point by point"},
	{KindPeriodChangesPercent, 0, 2, "Change and percent change between periods"},
	{KindForecast, 0, 2, "Linear trend with a 10-step forecast"},
	{KindDecomposition, 0, 2, "Observed series, moving-average trend and residual"},
}

var byKind = func() map[Kind]Requirement {
	m := make(map[Kind]Requirement, len(catalog))
	for _, r := range catalog {
		m[r.Kind] = r
	}
	return m
}()

// Requirements returns the catalog in display order. The slice is a copy.
func Requirements() []Requirement {
	out := make([]Requirement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the Requirement for k.
func Lookup(k Kind) (Requirement, bool) {
	r, ok := byKind[k]
	return r, ok
}
