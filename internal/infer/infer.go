// Package infer classifies dataset fields as numeric, date-like or
// categorical by sampling their values. All functions are pure and never
// fail: unusable input yields false.
package infer

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/insightloom/internal/dataset"
)

const (
	// SampleSize is the maximum number of non-null values inspected per field.
	SampleSize = 50
	// Threshold is the share of sampled values that must qualify.
	Threshold = 0.7

	msPerDay = 86_400_000
)

// serialEpoch is day zero of the spreadsheet serial-date convention.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC).UnixMilli()

// Kind is the semantic class of a field.
type Kind string

const (
	Numeric     Kind = "numeric"
	Date        Kind = "date"
	Categorical Kind = "categorical"
	Empty       Kind = "empty"
)

// ToNumber returns v as a finite float64. Only Go numeric kinds qualify;
// numeric-looking strings were already converted by the loaders.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToEpochMs converts a candidate date value to epoch milliseconds:
// time.Time maps to its own instant, a finite number is a spreadsheet serial
// day count (rounded to the nearest day) from 1899-12-30 UTC, and a string is
// run through a general date parser.
func ToEpochMs(v any) (int64, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UnixMilli(), true
	case *time.Time:
		if x == nil {
			return 0, false
		}
		return x.UnixMilli(), true
	case string:
		t, ok := parseDate(x)
		if !ok {
			return 0, false
		}
		return t.UnixMilli(), true
	}
	f, ok := ToNumber(v)
	if !ok {
		return 0, false
	}
	days := math.Floor(f + 0.5)
	ms := float64(serialEpoch) + days*msPerDay
	if math.IsInf(ms, 0) || math.Abs(ms) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(ms), true
}

// extra layouts seen in survey exports that cast does not cover. Slash dates
// are month first only, so a column never mixes day-first and month-first
// readings.
var layouts = []string{
	"2006/01/02", "01/02/2006", "1/2/2006",
	"2006-01-02 15:04", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"2006-01-02T15:04:05.000Z",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := cast.ToTimeInDefaultLocationE(s, time.UTC); err == nil {
		return t, true
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsMostlyNumeric samples up to SampleSize non-null values of field in row
// order and reports whether at least 70% are finite numbers.
func IsMostlyNumeric(field string, rows []dataset.Record) bool {
	return mostly(field, rows, func(v any) bool {
		_, ok := ToNumber(v)
		return ok
	})
}

// IsMostlyDateLike is IsMostlyNumeric with ToEpochMs as the test.
func IsMostlyDateLike(field string, rows []dataset.Record) bool {
	return mostly(field, rows, func(v any) bool {
		_, ok := ToEpochMs(v)
		return ok
	})
}

func mostly(field string, rows []dataset.Record, accept func(any) bool) bool {
	sampled, hits := 0, 0
	for _, r := range rows {
		if sampled >= SampleSize {
			break
		}
		v := r[field]
		if dataset.IsNull(v) {
			continue
		}
		sampled++
		if accept(v) {
			hits++
		}
	}
	if sampled == 0 {
		return false
	}
	return float64(hits)/float64(sampled) >= Threshold
}

// Classify returns the field's Kind. Numeric wins over date-like because
// every finite number also converts as a serial date.
func Classify(field string, rows []dataset.Record) Kind {
	if !hasValue(field, rows) {
		return Empty
	}
	if IsMostlyNumeric(field, rows) {
		return Numeric
	}
	if IsMostlyDateLike(field, rows) {
		return Date
	}
	return Categorical
}

func hasValue(field string, rows []dataset.Record) bool {
	for _, r := range rows {
		if !dataset.IsNull(r[field]) {
			return true
		}
	}
	return false
}
