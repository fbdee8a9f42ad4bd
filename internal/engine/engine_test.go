package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/insightloom/internal/dataset"
)

func fieldNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("f%d", i+1)
	}
	return out
}

// dailyRows returns n rows with ISO date strings one day apart and the given
// values under "score".
func dailyRows(values ...float64) *dataset.Dataset {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.Record, len(values))
	for i, v := range values {
		rows[i] = dataset.Record{"date": start.AddDate(0, 0, i).Format(time.DateOnly), "score": v}
	}
	return dataset.FromRows(rows)
}

func linear(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func requireChart(t *testing.T, r *Result) *Chart {
	t.Helper()
	require.NotNil(t, r)
	msg, isErr := r.Err()
	require.False(t, isErr, "unexpected error result: %s", msg)
	require.Equal(t, ResultChart, r.Kind)
	require.NotNil(t, r.Chart)
	return r.Chart
}

func TestCatalog(t *testing.T) {
	reqs := Requirements()
	require.Len(t, reqs, 22)
	seen := map[Kind]bool{}
	for _, r := range reqs {
		assert.LessOrEqual(t, r.MinFields, r.MaxFields, r.Kind)
		assert.GreaterOrEqual(t, r.MinFields, 0, r.Kind)
		assert.NotEmpty(t, r.Description, r.Kind)
		assert.False(t, seen[r.Kind], "duplicate %s", r.Kind)
		seen[r.Kind] = true
	}
	_, ok := Lookup(KindHistogram)
	assert.False(t, ok, "fallback is not listed")

	reqs[0].MinFields = 99
	again, _ := Lookup(reqs[0].Kind)
	assert.NotEqual(t, 99, again.MinFields, "Requirements returns a copy")
}

func TestBuildEnforcesBounds(t *testing.T) {
	for _, r := range Requirements() {
		t.Run(string(r.Kind), func(t *testing.T) {
			for _, n := range []int{r.MinFields, r.MaxFields} {
				a, err := Build(Request{Type: r.Kind, Fields: fieldNames(n)})
				require.NoError(t, err, "n=%d", n)
				assert.Equal(t, r.Kind, a.Kind())
			}

			_, err := Build(Request{Type: r.Kind, Fields: fieldNames(r.MaxFields + 1)})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFieldSelection))
			var fe *InvalidFieldSelectionError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, r.MaxFields+1, fe.Got)

			if r.MinFields > 0 {
				_, err := Run(Request{Type: r.Kind, Fields: fieldNames(r.MinFields - 1)}, dailyRows(1, 2, 3))
				assert.ErrorIs(t, err, ErrInvalidFieldSelection)
			}
		})
	}
}

func TestBuildRejectsBadNames(t *testing.T) {
	_, err := Build(Request{Type: KindCorrelation, Fields: []string{"x", "x"}})
	require.ErrorIs(t, err, ErrInvalidFieldSelection)
	assert.Contains(t, err.Error(), "more than once")

	_, err = Build(Request{Type: KindKPI, Fields: []string{" "}})
	require.ErrorIs(t, err, ErrInvalidFieldSelection)
	assert.Contains(t, err.Error(), "empty")
}

func TestBuildMapsRoles(t *testing.T) {
	a, err := Build(Request{Type: KindRelativeImportance, Fields: []string{"a", "b", "target"}})
	require.NoError(t, err)
	assert.Equal(t, RelativeImportance{Features: []string{"a", "b"}, Target: "target"}, a)

	a, err = Build(Request{Type: KindRankingGrouped, Fields: []string{"g", "i"}})
	require.NoError(t, err)
	assert.Equal(t, RankingGrouped{Group: "g", Item: "i"}, a)

	a, err = Build(Request{Type: KindProcessControlRolling})
	require.NoError(t, err)
	assert.True(t, a.(ProcessControl).Rolling)
}

func TestEveryKindReturnsSomething(t *testing.T) {
	ds := dailyRows(linear(30)...)
	for i := range ds.Rows {
		ds.Rows[i]["region"] = []string{"north", "south", "east"}[i%3]
		ds.Rows[i]["other"] = float64(i * i)
	}
	ds.Columns = append(ds.Columns, "region", "other")

	for _, r := range Requirements() {
		t.Run(string(r.Kind), func(t *testing.T) {
			fields := []string{"date", "score", "region", "other"}[:min(r.MaxFields, 4)]
			if len(fields) < r.MinFields {
				fields = append(fields, fieldNames(r.MinFields-len(fields))...)
			}
			res, err := Run(Request{Type: r.Kind, Fields: fields}, ds)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, r.Kind, res.Analysis)
			assert.NotEmpty(t, res.Markdown())
		})
	}
}

func TestCorrelationPerfectLinear(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{{"x": 1.0, "y": 2.0}, {"x": 2.0, "y": 4.0}, {"x": 3.0, "y": 6.0}})
	res, err := Run(Request{Type: KindCorrelation, Fields: []string{"x", "y"}}, ds)
	require.NoError(t, err)
	c := requireChart(t, res)
	require.Len(t, c.Series, 1)
	z := c.Series[0].Z
	require.Len(t, z, 2)
	assert.Equal(t, 1.0, z[0][0])
	assert.Equal(t, 1.0, z[1][1])
	assert.InDelta(t, 1.0, z[0][1], 1e-12)
	assert.InDelta(t, 1.0, z[1][0], 1e-12)
	assert.Equal(t, SeriesHeatmap, c.Series[0].Type)
}

func TestCorrelationDiagonalWithConstantField(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{{"x": 1.0, "c": 5.0}, {"x": 2.0, "c": 5.0}, {"x": 4.0, "c": 5.0}})
	res, _ := Run(Request{Type: KindCorrelation, Fields: []string{"x", "c"}}, ds)
	z := requireChart(t, res).Series[0].Z
	assert.Equal(t, 1.0, z[1][1], "diagonal is 1 even for zero variance")
	assert.Zero(t, z[0][1])
}

func TestCorrelationNeedsTwoNumeric(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{{"x": 1.0, "name": "a"}, {"x": 2.0, "name": "b"}})
	res, err := Run(Request{Type: KindCorrelation, Fields: []string{"x", "name"}}, ds)
	require.NoError(t, err)
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestForecastContinuesSlope(t *testing.T) {
	ds := dailyRows(linear(20)...)
	res, err := Run(Request{Type: KindForecast, Fields: []string{"date", "score"}}, ds)
	require.NoError(t, err)
	c := requireChart(t, res)
	require.Len(t, c.Series, 3)
	fc := c.Series[2]
	assert.Equal(t, "Forecast", fc.Name)
	require.Len(t, fc.Y, 10)
	for i, y := range fc.Y {
		assert.InDelta(t, float64(20+i), y.(float64), 1e-9, "step %d", i)
	}
	assert.Equal(t, "2024-01-21T00:00:00Z", fc.X[0])
}

func TestForecastNeedsFivePoints(t *testing.T) {
	res, _ := Run(Request{Type: KindForecast}, dailyRows(1, 2, 3, 4))
	msg, isErr := res.Err()
	require.True(t, isErr)
	assert.Contains(t, msg, "at least 5")
}

func TestRankingCountsAndOrder(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{{"region": "A"}, {"region": "A"}, {"region": "B"}})
	res, err := Run(Request{Type: KindRanking, Fields: []string{"region"}}, ds)
	require.NoError(t, err)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{"A", "B"}, s.X)
	assert.Equal(t, []any{2.0, 1.0}, s.Y)
}

func TestRankingSumsAndKeepsTiesInOrder(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"team": "red", "pts": 3.0},
		{"team": "blue", "pts": 5.0},
		{"team": "green", "pts": 5.0},
		{"team": nil, "pts": 1.0},
	})
	res, _ := Run(Request{Type: KindRanking, Fields: []string{"team", "pts"}}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{"blue", "green", "red", "Unknown"}, s.X)
	assert.Equal(t, []any{5.0, 5.0, 3.0, 1.0}, s.Y)
}

func TestRankingKeepsTopTen(t *testing.T) {
	var rows []dataset.Record
	for i := range 15 {
		for range i + 1 {
			rows = append(rows, dataset.Record{"k": fmt.Sprintf("g%02d", i)})
		}
	}
	res, _ := Run(Request{Type: KindRanking, Fields: []string{"k"}}, dataset.FromRows(rows))
	s := requireChart(t, res).Series[0]
	require.Len(t, s.X, 10)
	assert.Equal(t, "g14", s.X[0])
}

func TestRankingGrouped(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"region": "north", "product": "tea", "qty": 4.0},
		{"region": "north", "product": "coffee", "qty": 1.0},
		{"region": "south", "product": "tea", "qty": 2.0},
		{"region": "south"},
	})
	res, _ := Run(Request{Type: KindRankingGrouped, Fields: []string{"region", "product", "qty"}}, ds)
	c := requireChart(t, res)
	assert.Equal(t, "group", c.Layout.BarMode)
	require.Len(t, c.Series, 3)
	assert.Equal(t, "tea", c.Series[0].Name)
	assert.Equal(t, []any{"north", "south"}, c.Series[0].X)
	assert.Equal(t, []any{4.0, 2.0}, c.Series[0].Y)
	assert.Equal(t, "Unknown", c.Series[2].Name, "missing item coerced")
}

func TestBreakdownOther(t *testing.T) {
	mk := func(n int) *dataset.Dataset {
		rows := make([]dataset.Record, n)
		for i := range rows {
			rows[i] = dataset.Record{"c": fmt.Sprintf("v%d", i)}
		}
		return dataset.FromRows(rows)
	}

	res, _ := Run(Request{Type: KindBreakdown, Fields: []string{"c"}}, mk(27))
	s := requireChart(t, res).Series[0]
	require.Len(t, s.X, 26)
	assert.Equal(t, "Other", s.X[25])
	assert.Equal(t, 2.0, s.Y[25])

	res, _ = Run(Request{Type: KindBreakdown, Fields: []string{"c"}}, mk(25))
	s = requireChart(t, res).Series[0]
	assert.Len(t, s.X, 25)
	assert.NotContains(t, s.X, "Other")
}

func TestGeoBreakdown(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"country": "FR", "sales": 10.0},
		{"country": "DE", "sales": 30.0},
		{"country": "FR", "sales": 5.0},
	})
	res, _ := Run(Request{Type: KindGeoBreakdown, Fields: []string{"country", "sales"}}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{"DE", "FR"}, s.X)
	assert.Equal(t, []any{30.0, 15.0}, s.Y)

	res, _ = Run(Request{Type: KindGeoBreakdown, Fields: []string{"country"}}, ds)
	s = requireChart(t, res).Series[0]
	assert.Equal(t, []any{"FR", "DE"}, s.X)
	assert.Equal(t, []any{2.0, 1.0}, s.Y, "counts without a value field")
}

func TestKPIExcludesNonNumeric(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"score": 2.0, "name": "a"},
		{"score": 4.0, "name": "b"},
		{"score": nil, "name": "c"},
	})
	res, err := Run(Request{Type: KindKPI, Fields: []string{"score", "name"}}, ds)
	require.NoError(t, err)
	assert.Equal(t, Calculation{"score Sum": 6.0, "score Average": 3.0, "score Count": 2}, res.Calculation)

	res, _ = Run(Request{Type: KindKPI, Fields: []string{"name"}}, ds)
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestKPINonFiniteIsNull(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{{"spend": 1e308}, {"spend": 1e308}})
	res, err := Run(Request{Type: KindKPI, Fields: []string{"spend"}}, ds)
	require.NoError(t, err)

	assert.Nil(t, res.Calculation["spend Sum"])
	assert.Nil(t, res.Calculation["spend Average"])
	assert.Equal(t, 2, res.Calculation["spend Count"])
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"spend Sum":null`)
}

func TestOverview(t *testing.T) {
	res, err := Run(Request{Type: KindOverview, Fields: []string{"a", "b"}}, dataset.FromRows(nil))
	require.NoError(t, err)
	assert.Equal(t, Calculation{"Records": 0, "a Unique": 0, "b Unique": 0}, res.Calculation)

	ds := dataset.FromRows([]dataset.Record{{"a": "x", "b": 1.0}, {"a": "x", "b": 2.0}, {"a": "", "b": 2.0}})
	res, _ = Run(Request{Type: KindOverview}, ds)
	assert.Equal(t, Calculation{"Records": 3, "a Unique": 1, "b Unique": 2}, res.Calculation)
}

func TestComparison(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"team": "red", "score": 1.0, "time": 9.0},
		{"team": "blue", "score": 5.0, "time": 7.0},
		{"team": "red", "score": 3.0, "time": 8.0},
	})

	res, _ := Run(Request{Type: KindComparison, Fields: []string{"team", "score"}}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{"blue", "red"}, s.X)
	assert.Equal(t, []any{5.0, 2.0}, s.Y)

	res, _ = Run(Request{Type: KindComparison, Fields: []string{"score", "time", "team"}}, ds)
	s = requireChart(t, res).Series[0]
	assert.Equal(t, "Average by field", res.Title)
	assert.Equal(t, []any{"time", "score"}, s.X)
	assert.Equal(t, []any{8.0, 3.0}, s.Y)
}

func TestComparisonNumericCategory(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"rating": 1.0, "spend": 10.0},
		{"rating": 2.0, "spend": 50.0},
		{"rating": 1.0, "spend": 30.0},
	})

	res, _ := Run(Request{Type: KindComparison, Fields: []string{"rating", "spend"}}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, "Average spend by rating", res.Title)
	assert.Equal(t, []any{"2", "1"}, s.X)
	assert.Equal(t, []any{50.0, 20.0}, s.Y)
}

func TestRelativeImportance(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"a": 1.0, "b": 1.0, "y": 1.0},
		{"a": 2.0, "b": 3.0, "y": 2.0},
		{"a": 3.0, "b": 1.0, "y": 3.0},
		{"a": 4.0, "b": 2.0, "y": 4.0},
	})
	res, _ := Run(Request{Type: KindRelativeImportance, Fields: []string{"b", "a", "y"}}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{"a", "b"}, s.X)
	assert.InDelta(t, 1.0, s.Y[0].(float64), 1e-12)

	res, _ = Run(Request{Type: KindRelativeImportance, Fields: []string{"a", "missing"}}, ds)
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestMutualInformation(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"a": "x", "b": "x"}, {"a": "x", "b": "x"}, {"a": "y", "b": "y"}, {"a": "y", "b": "y"},
	})
	res, _ := Run(Request{Type: KindMutualInformation}, ds)
	z := requireChart(t, res).Series[0].Z
	assert.Zero(t, z[0][0])
	assert.Zero(t, z[1][1])
	assert.InDelta(t, 0.6931471805599453, z[0][1], 1e-12)
	assert.Equal(t, z[0][1], z[1][0])

	res, _ = Run(Request{Type: KindMutualInformation, Fields: []string{"a"}}, ds)
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestMILabel(t *testing.T) {
	assert.Equal(t, "1.2", miLabel(1.29))
	assert.Equal(t, "-0.1", miLabel(-0.05))
	long := "abcdefghijabcdefghijabcdefghijabcdefghijXYZ"
	assert.Equal(t, long[:40], miLabel(long))
}

func TestClustering(t *testing.T) {
	var rows []dataset.Record
	for _, c := range [][2]float64{{0, 0}, {10, 10}, {20, 0}} {
		for i := range 3 {
			rows = append(rows, dataset.Record{"x": c[0] + float64(i)*0.1, "y": c[1] + float64(i)*0.1, "tag": "t"})
		}
	}
	ds := dataset.FromRows(rows)
	res, _ := Run(Request{Type: KindClustering, Fields: []string{"x", "y"}}, ds)
	c := requireChart(t, res)
	require.Len(t, c.Series, 4)
	for _, s := range c.Series[:3] {
		assert.Len(t, s.X, 3)
	}
	assert.Equal(t, "Centers", c.Series[3].Name)

	res, _ = Run(Request{Type: KindClustering}, dataset.FromRows([]dataset.Record{{"x": 1.0, "tag": "t"}}))
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestAnomalySpike(t *testing.T) {
	res, err := Run(Request{Type: KindAnomalySpike}, dailyRows(1, 2, 3, 4))
	require.NoError(t, err)
	msg, isErr := res.Err()
	require.True(t, isErr, "fewer than 5 points is a data error, not a failure")
	assert.Contains(t, msg, "found 4")

	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = 1
	}
	vals[12] = 100
	res, _ = Run(Request{Type: KindAnomalySpike, Fields: []string{"date", "score"}}, dailyRows(vals...))
	flagged := requireChart(t, res).Series[1]
	assert.Equal(t, []any{100.0}, flagged.Y)
	assert.Equal(t, []any{"2024-01-13T00:00:00Z"}, flagged.X)
}

func TestAnomalyTrend(t *testing.T) {
	vals := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 30, -20}
	res, _ := Run(Request{Type: KindAnomalyTrend}, dailyRows(vals...))
	flagged := requireChart(t, res).Series[1]
	assert.Equal(t, []any{30.0, -20.0}, flagged.Y)
}

func TestPeriodKinds(t *testing.T) {
	ones := make([]float64, 20)
	for i := range ones {
		ones[i] = 1
	}
	ones[19] = 11

	res, _ := Run(Request{Type: KindPeriodChangesPercent}, dailyRows(ones...))
	assert.Equal(t, Calculation{"Current Period": 20.0, "Previous Period": 10.0, "Change": 10.0, "Change %": 100.0}, res.Calculation)

	res, _ = Run(Request{Type: KindPeriodChangesPercent}, dailyRows(3, 4))
	assert.Nil(t, res.Calculation["Change %"], "no previous period")
	assert.Contains(t, res.Calculation, "Change %")

	res, _ = Run(Request{Type: KindPeriodOverPeriod}, dailyRows(ones...))
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{10.0, 20.0}, s.Y)

	res, _ = Run(Request{Type: KindPeriodChanges}, dailyRows(ones...))
	c := requireChart(t, res)
	require.Len(t, c.Series, 2)
	assert.Len(t, c.Series[0].X, 10)
	assert.Equal(t, 1, c.Series[1].X[0])
	assert.Contains(t, c.Layout.Annotations[2], "+100.00%")

	res, _ = Run(Request{Type: KindPeriodOverPeriod}, dailyRows(1))
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestTrendOverTime(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"when": "2024-02-02T10:00:00Z"},
		{"when": "2024-02-01T09:00:00Z"},
		{"when": "2024-02-02T15:00:00Z"},
	})
	res, _ := Run(Request{Type: KindTrend}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{"2024-02-01", "2024-02-02"}, s.X)
	assert.Equal(t, []any{1.0, 2.0}, s.Y, "rows counted per day without a value field")

	res, _ = Run(Request{Type: KindTrend}, dataset.FromRows([]dataset.Record{{"name": "x"}}))
	msg, isErr := res.Err()
	require.True(t, isErr)
	assert.Contains(t, msg, "date-like")
}

func TestYearToDate(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{
		{"d": "2023-12-30", "v": 1.0},
		{"d": "2024-01-02", "v": 2.0},
		{"d": "2024-01-05", "v": 3.0},
	})
	res, _ := Run(Request{Type: KindYearToDate}, ds)
	s := requireChart(t, res).Series[0]
	assert.Equal(t, []any{1.0, 3.0, 6.0}, s.Y)
}

func TestProcessControl(t *testing.T) {
	ds := dailyRows(linear(20)...)
	res, _ := Run(Request{Type: KindProcessControl}, ds)
	c := requireChart(t, res)
	require.Len(t, c.Series, 4)
	mean := c.Series[1].Y[0].(float64)
	assert.InDelta(t, 9.5, mean, 1e-12)

	res, _ = Run(Request{Type: KindProcessControlRolling}, ds)
	c = requireChart(t, res)
	require.Len(t, c.Series, 5)
	assert.Equal(t, "Rolling mean (5)", c.Series[4].Name)

	res, _ = Run(Request{Type: KindProcessControl}, dailyRows(1))
	_, isErr := res.Err()
	assert.True(t, isErr)
}

func TestDecomposition(t *testing.T) {
	vals := []float64{3, 8, 1, 9, 4, 7, 2, 6, 5, 10, 3, 8, 1, 9, 4, 7}
	res, _ := Run(Request{Type: KindDecomposition}, dailyRows(vals...))
	c := requireChart(t, res)
	require.Len(t, c.Series, 3)
	for i := range vals {
		trend := c.Series[1].Y[i].(float64)
		resid := c.Series[2].Y[i].(float64)
		assert.InDelta(t, vals[i], trend+resid, 1e-9)
	}
	assert.Contains(t, c.Layout.Annotations[0], "window 7")
}

func TestUnknownTypeFallsBackToHistogram(t *testing.T) {
	ds := dataset.FromRows([]dataset.Record{{"region": "A"}, {"region": "A"}, {"region": "B"}})
	res, err := Run(Request{Type: "Sunburst", Fields: []string{"region"}}, ds)
	require.NoError(t, err)
	c := requireChart(t, res)
	assert.Equal(t, KindHistogram, res.Analysis)
	assert.Equal(t, SeriesHistogram, c.Series[0].Type)
	assert.Equal(t, []any{"A", "A", "B"}, c.Series[0].X)

	res, err = Run(Request{Type: "Sunburst"}, nil)
	require.NoError(t, err)
	requireChart(t, res)
}

func TestTimeFieldResolution(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"id", "serial", "when", "score"},
		Rows: []dataset.Record{
			{"id": 1.0, "serial": 45000.0, "when": "2024-01-01", "score": 3.0},
			{"id": 2.0, "serial": 45001.0, "when": "2024-01-02", "score": 4.0},
		},
	}
	tests := []struct {
		name      string
		selected  []string
		wantTime  string
		wantValue string
	}{
		{name: "auto", wantTime: "when", wantValue: "id"},
		{name: "value_only", selected: []string{"score"}, wantTime: "when", wantValue: "score"},
		{name: "time_only", selected: []string{"when"}, wantTime: "when", wantValue: "id"},
		{name: "explicit_serial", selected: []string{"serial", "score"}, wantTime: "serial", wantValue: "score"},
		{name: "swapped", selected: []string{"score", "when"}, wantTime: "when", wantValue: "score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, v := TimeFields{Selected: tt.selected}.resolve(ds)
			assert.Equal(t, tt.wantTime, tm)
			assert.Equal(t, tt.wantValue, v)
		})
	}
}

func TestTimeFieldResolutionSerialOnly(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"score", "serial"},
		Rows: []dataset.Record{
			{"score": 3.0, "serial": 45000.0},
			{"score": 4.0, "serial": 45001.0},
		},
	}

	tm, v := TimeFields{Selected: []string{"serial"}}.resolve(ds)
	assert.Equal(t, "serial", tm)
	assert.Equal(t, "score", v)

	tm, v = TimeFields{}.resolve(ds)
	assert.Equal(t, "serial", tm, "the value field is never reused as time")
	assert.Equal(t, "score", v)
}

func TestResolve(t *testing.T) {
	isUpper := func(f string) bool { return f != "" && f[0] >= 'A' && f[0] <= 'Z' }
	assert.Equal(t, "B", resolve([]string{"a", "B"}, isUpper, []string{"C"}))
	assert.Equal(t, "C", resolve([]string{"a"}, isUpper, []string{"x", "C"}))
	assert.Equal(t, "D", resolve([]string{"C"}, isUpper, []string{"D"}, "C"))
	assert.Empty(t, resolve(nil, isUpper, nil))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Unknown", label(nil))
	assert.Equal(t, "Unknown", label("  "))
	assert.Equal(t, "2.5", label(2.5))
	assert.Equal(t, "3", label(3))
	assert.Equal(t, "true", label(true))
	assert.Equal(t, "2024-01-01T00:00:00Z", label(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}
