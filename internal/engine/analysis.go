// Package engine validates analysis requests, routes them to one of the
// catalog's algorithms and returns a renderable Result.
//
// Every algorithm is a pure function of its typed parameters and a read-only
// dataset, so Run may be called concurrently on the same Dataset.
package engine

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/insightloom/internal/dataset"
)

// Request is what a caller asks for: an analysis type and the fields chosen
// for it, in order.
type Request struct {
	Type   Kind     `json:"type" yaml:"type"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Analysis is a validated request. The set of implementations is closed:
// each catalog Kind has exactly one variant, plus Histogram for unknown types.
type Analysis interface {
	Kind() Kind
	run(ds *dataset.Dataset) *Result
}

// KPI reports sum, average and count per numeric measure.
type KPI struct{ Measures []string }

// Ranking groups by Group and ranks groups by summed Value, or by row count
// when Value is empty or not numeric.
type Ranking struct{ Group, Value string }

// RankingGrouped is a Ranking split by a second grouping field.
type RankingGrouped struct{ Group, Item, Value string }

// Breakdown counts occurrences of each Category value.
type Breakdown struct{ Category string }

// GeoBreakdown totals Value, or counts rows, per Location.
type GeoBreakdown struct{ Location, Value string }

// Overview counts records and distinct values per field.
type Overview struct{ Fields []string }

// Comparison compares means, per category or across measures.
type Comparison struct{ Fields []string }

// RelativeImportance scores each feature by |pearson(feature, Target)|.
type RelativeImportance struct {
	Features []string
	Target   string
}

// Correlation builds the Pearson matrix of Fields.
type Correlation struct{ Fields []string }

// MutualInformation builds the pairwise MI matrix of Fields.
type MutualInformation struct{ Fields []string }

// Clustering runs k-means over two numeric fields.
type Clustering struct{ Fields []string }

// Histogram is the fallback for unknown analysis types.
type Histogram struct {
	Requested Kind
	Field     string
}

// TimeFields carries the caller's picks for a time-based analysis. The time
// and value roles are resolved against the data at run time.
type TimeFields struct{ Selected []string }

type (
	Trend                struct{ TimeFields }
	YearToDate           struct{ TimeFields }
	AnomalySpike         struct{ TimeFields }
	AnomalyTrend         struct{ TimeFields }
	PeriodOverPeriod     struct{ TimeFields }
	PeriodChanges        struct{ TimeFields }
	PeriodChangesPercent struct{ TimeFields }
	Forecast             struct{ TimeFields }
	Decomposition        struct{ TimeFields }
)

// ProcessControl draws control limits; Rolling adds a moving average.
type ProcessControl struct {
	TimeFields
	Rolling bool
}

func (KPI) Kind() Kind                  { return KindKPI }
func (Ranking) Kind() Kind              { return KindRanking }
func (RankingGrouped) Kind() Kind       { return KindRankingGrouped }
func (Breakdown) Kind() Kind            { return KindBreakdown }
func (GeoBreakdown) Kind() Kind         { return KindGeoBreakdown }
func (Overview) Kind() Kind             { return KindOverview }
func (Comparison) Kind() Kind           { return KindComparison }
func (RelativeImportance) Kind() Kind   { return KindRelativeImportance }
func (Correlation) Kind() Kind          { return KindCorrelation }
func (MutualInformation) Kind() Kind    { return KindMutualInformation }
func (Clustering) Kind() Kind           { return KindClustering }
func (Histogram) Kind() Kind            { return KindHistogram }
func (Trend) Kind() Kind                { return KindTrend }
func (YearToDate) Kind() Kind           { return KindYearToDate }
func (AnomalySpike) Kind() Kind         { return KindAnomalySpike }
func (AnomalyTrend) Kind() Kind         { return KindAnomalyTrend }
func (PeriodOverPeriod) Kind() Kind     { return KindPeriodOverPeriod }
func (PeriodChanges) Kind() Kind        { return KindPeriodChanges }
func (PeriodChangesPercent) Kind() Kind { return KindPeriodChangesPercent }
func (Forecast) Kind() Kind             { return KindForecast }
func (Decomposition) Kind() Kind        { return KindDecomposition }

func (p ProcessControl) Kind() Kind {
	if p.Rolling {
		return KindProcessControlRolling
	}
	return KindProcessControl
}

// Build checks the request against the catalog and maps its fields onto the
// matching variant. An unknown type is not an error: it yields a Histogram
// of the first selected field.
func Build(req Request) (Analysis, error) {
	fields := req.Fields
	reqm, ok := Lookup(req.Type)
	if !ok {
		return Histogram{Requested: req.Type, Field: at(fields, 0)}, nil
	}
	if !reqm.Allows(len(fields)) {
		return nil, &InvalidFieldSelectionError{Kind: req.Type, Got: len(fields), Min: reqm.MinFields, Max: reqm.MaxFields}
	}
	if reason := checkNames(fields); reason != "" {
		return nil, &InvalidFieldSelectionError{Kind: req.Type, Got: len(fields), Min: reqm.MinFields, Max: reqm.MaxFields, Reason: reason}
	}

	fields = append([]string(nil), fields...)
	tf := TimeFields{Selected: fields}
	switch req.Type {
	case KindKPI:
		return KPI{Measures: fields}, nil
	case KindRanking:
		return Ranking{Group: fields[0], Value: at(fields, 1)}, nil
	case KindRankingGrouped:
		return RankingGrouped{Group: fields[0], Item: fields[1], Value: at(fields, 2)}, nil
	case KindBreakdown:
		return Breakdown{Category: fields[0]}, nil
	case KindGeoBreakdown:
		return GeoBreakdown{Location: fields[0], Value: at(fields, 1)}, nil
	case KindOverview:
		return Overview{Fields: fields}, nil
	case KindComparison:
		return Comparison{Fields: fields}, nil
	case KindRelativeImportance:
		n := len(fields)
		return RelativeImportance{Features: fields[:n-1], Target: fields[n-1]}, nil
	case KindCorrelation:
		return Correlation{Fields: fields}, nil
	case KindMutualInformation:
		return MutualInformation{Fields: fields}, nil
	case KindClustering:
		return Clustering{Fields: fields}, nil
	case KindTrend:
		return Trend{tf}, nil
	case KindYearToDate:
		return YearToDate{tf}, nil
	case KindProcessControl:
		return ProcessControl{TimeFields: tf}, nil
	case KindProcessControlRolling:
		return ProcessControl{TimeFields: tf, Rolling: true}, nil
	case KindAnomalySpike:
		return AnomalySpike{tf}, nil
	case KindAnomalyTrend:
		return AnomalyTrend{tf}, nil
	case KindPeriodOverPeriod:
		return PeriodOverPeriod{tf}, nil
	case KindPeriodChanges:
		return PeriodChanges{tf}, nil
	case KindPeriodChangesPercent:
		return PeriodChangesPercent{tf}, nil
	case KindForecast:
		return Forecast{tf}, nil
	case KindDecomposition:
		return Decomposition{tf}, nil
	}
	return nil, fmt.Errorf("catalog kind %q has no analysis variant", req.Type)
}

// Execute runs a built analysis. A nil dataset is treated as empty.
func Execute(a Analysis, ds *dataset.Dataset) *Result {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	return a.run(ds)
}

// Run is Build followed by Execute. The only error it returns is an
// *InvalidFieldSelectionError; data problems come back as an Error
// calculation.
func Run(req Request, ds *dataset.Dataset) (*Result, error) {
	a, err := Build(req)
	if err != nil {
		return nil, err
	}
	return Execute(a, ds), nil
}

func checkNames(fields []string) string {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Sprintf("field %d is empty", i+1)
		}
		if _, dup := seen[f]; dup {
			return fmt.Sprintf("field %q selected more than once", f)
		}
		seen[f] = struct{}{}
	}
	return ""
}

func at(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
