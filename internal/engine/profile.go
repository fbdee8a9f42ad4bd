package engine

import (
	"math"
	"time"

	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/infer"
	"github.com/KaramelBytes/insightloom/internal/stats"
)

const (
	profileTopValues = 8
	// OutlierThreshold is the modified z-score above which a value counts as
	// an outlier in a profile.
	OutlierThreshold = 3.5
)

// DatasetProfile summarizes every column of a dataset.
type DatasetProfile struct {
	Name   string         `json:"name,omitempty"`
	Rows   int            `json:"rows"`
	Total  int            `json:"total"`
	Fields []FieldProfile `json:"fields"`
	Notes  []string       `json:"notes,omitempty"`
}

// FieldProfile is the summary of one column.
type FieldProfile struct {
	Name    string          `json:"name"`
	Kind    infer.Kind      `json:"kind"`
	NonNull int             `json:"nonNull"`
	Missing int             `json:"missing"`
	Unique  int             `json:"unique"`
	Numeric *NumericSummary `json:"numeric,omitempty"`
	Dates   *DateRange      `json:"dates,omitempty"`
	Top     []ValueCount    `json:"top,omitempty"`
}

// NumericSummary describes a numeric column. Skewness is nil when undefined.
type NumericSummary struct {
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Mean     float64   `json:"mean"`
	StdDev   float64   `json:"stddev"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Mode     []float64 `json:"mode,omitempty"`
	Skewness *float64  `json:"skewness,omitempty"`
	Outliers int       `json:"outliers"`
	MaxAbsZ  float64   `json:"maxAbsZ,omitempty"`
}

// DateRange is the span of a date-like column.
type DateRange struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// ValueCount is one categorical value and its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile classifies and summarizes each column of ds.
func Profile(ds *dataset.Dataset) *DatasetProfile {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	p := &DatasetProfile{Name: ds.Name, Rows: ds.Len(), Total: max(ds.Total, ds.Len())}
	if p.Total > p.Rows {
		p.Notes = append(p.Notes, "Row cap reached; statistics cover the loaded rows only")
	}
	for _, col := range ds.Columns {
		fp := profileField(col, ds.Rows)
		if fp.Missing > 0 && fp.NonNull == 0 {
			p.Notes = append(p.Notes, "Column "+col+" is empty")
		}
		p.Fields = append(p.Fields, fp)
	}
	return p
}

func profileField(name string, rows []dataset.Record) FieldProfile {
	fp := FieldProfile{Name: name, Kind: infer.Classify(name, rows)}
	counts := newTally()
	for _, r := range rows {
		v := r[name]
		if dataset.IsNull(v) {
			fp.Missing++
			continue
		}
		fp.NonNull++
		counts.add(label(v), 1)
	}
	fp.Unique = counts.len()

	switch fp.Kind {
	case infer.Numeric:
		fp.Numeric = summarize(numbers(name, rows))
	case infer.Date:
		fp.Dates = dateRange(name, rows)
	case infer.Categorical:
		top := counts.ranked()
		for _, e := range top[:min(profileTopValues, len(top))] {
			fp.Top = append(fp.Top, ValueCount{Value: e.Label, Count: int(e.Value)})
		}
	}
	return fp
}

func summarize(vals []float64) *NumericSummary {
	if len(vals) == 0 {
		return nil
	}
	s := &NumericSummary{
		Min:    stats.Min(vals),
		Max:    stats.Max(vals),
		Mean:   stats.Mean(vals),
		StdDev: stats.StdDev(vals),
		Q1:     stats.Quantile(vals, 0.25),
		Median: stats.Median(vals),
		Q3:     stats.Quantile(vals, 0.75),
		Mode:   stats.Mode(vals),
	}
	if sk := stats.Skewness(vals); !math.IsNaN(sk) {
		s.Skewness = &sk
	}
	s.Outliers, s.MaxAbsZ = stats.RobustOutliers(vals, OutlierThreshold)
	return s
}

func dateRange(name string, rows []dataset.Record) *DateRange {
	var lo, hi int64
	found := false
	for _, r := range rows {
		t, ok := infer.ToEpochMs(r[name])
		if !ok {
			continue
		}
		if !found || t < lo {
			lo = t
		}
		if !found || t > hi {
			hi = t
		}
		found = true
	}
	if !found {
		return nil
	}
	return &DateRange{First: time.UnixMilli(lo).UTC(), Last: time.UnixMilli(hi).UTC()}
}
