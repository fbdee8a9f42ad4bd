package infer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/insightloom/internal/dataset"
)

func rowsOf(field string, vals ...any) []dataset.Record {
	out := make([]dataset.Record, len(vals))
	for i, v := range vals {
		out[i] = dataset.Record{field: v}
	}
	return out
}

func TestToEpochMs(t *testing.T) {
	t.Run("native_time_round_trips", func(t *testing.T) {
		ts := time.Date(2023, time.March, 14, 15, 9, 26, 535_000_000, time.UTC)
		got, ok := ToEpochMs(ts)
		assert.True(t, ok)
		assert.Equal(t, ts.UnixMilli(), got)
	})

	t.Run("serial_44562_is_2022_01_01", func(t *testing.T) {
		got, ok := ToEpochMs(44562.0)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), got)
	})

	t.Run("serial_fraction_rounds_to_day", func(t *testing.T) {
		got, ok := ToEpochMs(44562.6)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2022, time.January, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), got)
	})

	t.Run("integer_kinds", func(t *testing.T) {
		got, ok := ToEpochMs(1)
		assert.True(t, ok)
		assert.Equal(t, time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC).UnixMilli(), got)
	})

	t.Run("iso_strings", func(t *testing.T) {
		got, ok := ToEpochMs("2024-08-10")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC).UnixMilli(), got)

		got, ok = ToEpochMs("2024-08-10T12:30:00Z")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, time.August, 10, 12, 30, 0, 0, time.UTC).UnixMilli(), got)
	})

	t.Run("slash_layout", func(t *testing.T) {
		_, ok := ToEpochMs("2024/08/10")
		assert.True(t, ok)
	})

	t.Run("slash_dates_are_month_first", func(t *testing.T) {
		got, ok := ToEpochMs("03/04/2024")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC).UnixMilli(), got)

		got, ok = ToEpochMs("12/25/2024")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC).UnixMilli(), got)

		_, ok = ToEpochMs("25/12/2024")
		assert.False(t, ok, "day-first dates are not guessed")
	})

	t.Run("not_convertible", func(t *testing.T) {
		for _, v := range []any{nil, "", "not a date", true, math.NaN(), math.Inf(1), []int{1}} {
			_, ok := ToEpochMs(v)
			assert.False(t, ok, "%v", v)
		}
	})
}

func TestToNumber(t *testing.T) {
	f, ok := ToNumber(int32(7))
	assert.True(t, ok)
	assert.InDelta(t, 7.0, f, 1e-12)
	_, ok = ToNumber("7")
	assert.False(t, ok)
	_, ok = ToNumber(math.Inf(-1))
	assert.False(t, ok)
}

func TestIsMostlyNumeric(t *testing.T) {
	tests := []struct {
		name string
		vals []any
		want bool
	}{
		{name: "all_numbers", vals: []any{1.0, 2.0, 3.0}, want: true},
		{name: "seventy_percent", vals: []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, "a", "b", "c"}, want: true},
		{name: "below_threshold", vals: []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0, "a", "b", "c", "d"}, want: false},
		{name: "nulls_ignored", vals: []any{nil, "", 1.0, nil, 2.0}, want: true},
		{name: "nothing_sampled", vals: []any{nil, " "}, want: false},
		{name: "strings", vals: []any{"North", "South"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMostlyNumeric("f", rowsOf("f", tt.vals...)))
		})
	}
}

func TestSamplingStopsAtFifty(t *testing.T) {
	vals := make([]any, 0, 120)
	for i := 0; i < SampleSize; i++ {
		vals = append(vals, float64(i))
	}
	for i := 0; i < 70; i++ {
		vals = append(vals, "text")
	}
	assert.True(t, IsMostlyNumeric("f", rowsOf("f", vals...)))
}

func TestIsMostlyDateLike(t *testing.T) {
	assert.False(t, IsMostlyDateLike("d", rowsOf("d", "2024-01-01", "2024-01-02", "junk")))
	assert.True(t, IsMostlyDateLike("d", rowsOf("d", "2024-01-01", "2024-01-02", "2024-01-03", "junk")))
	assert.False(t, IsMostlyDateLike("d", rowsOf("d", "yes", "no", "2024-01-02")))
	assert.True(t, IsMostlyDateLike("d", rowsOf("d", 44562.0, 44563.0)))
	assert.False(t, IsMostlyDateLike("missing", rowsOf("d", 1.0)))
}

func TestIsMostlyDateLikeThreshold(t *testing.T) {
	sample := func(dates int) []dataset.Record {
		vals := make([]any, 0, 10)
		for i := 0; i < 10; i++ {
			if i < dates {
				vals = append(vals, "2024-01-01")
			} else {
				vals = append(vals, "junk")
			}
		}
		return rowsOf("d", vals...)
	}
	assert.True(t, IsMostlyDateLike("d", sample(7)))
	assert.False(t, IsMostlyDateLike("d", sample(6)))
}

func TestClassify(t *testing.T) {
	rows := []dataset.Record{
		{"when": "2024-01-01", "score": 3.0, "region": "North", "blank": nil},
		{"when": "2024-01-02", "score": 4.0, "region": "South", "blank": ""},
	}
	assert.Equal(t, Date, Classify("when", rows))
	assert.Equal(t, Numeric, Classify("score", rows))
	assert.Equal(t, Categorical, Classify("region", rows))
	assert.Equal(t, Empty, Classify("blank", rows))
}
