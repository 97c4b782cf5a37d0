package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrql-builder-backend/internal/builder"
	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/idgen"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/nrql"
)

func newBuilder() *builder.Builder {
	return builder.New(catalog.Default(), idgen.NewSequence("id"))
}

func strPtr(s string) *string { return &s }

func opPtr(op model.Operator) *model.Operator { return &op }

func TestCreateMetricFilterDefaults(t *testing.T) {
	b := newBuilder()

	tests := []struct {
		name     string
		field    string
		expField string
		expOp    model.Operator
	}{
		{name: "String Field", field: "request.method", expField: "request.method", expOp: model.OpEqual},
		{name: "Numeric Field", field: "duration", expField: "duration", expOp: model.OpGreater},
		{name: "Unknown Field", field: "removed.field", expField: "removed.field", expOp: model.OpGreater},
		{name: "No Field", field: "", expField: catalog.DefaultFilterField, expOp: model.OpEqual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := b.CreateMetricFilter(tt.field)
			assert.NotEmpty(t, f.ID)
			assert.Equal(t, tt.expField, f.Field)
			assert.Equal(t, tt.expOp, f.Operator)
			assert.Empty(t, f.Value)
			assert.False(t, f.Negated)
		})
	}
}

func TestCreateMetricItemNormalizesAggregation(t *testing.T) {
	b := newBuilder()

	tests := []struct {
		name        string
		field       string
		aggregation string
		expected    string
	}{
		{name: "Numeric Keeps Numerical", field: "duration", aggregation: "average", expected: "average"},
		{name: "String Drops Numerical", field: "request.uri", aggregation: "average", expected: "count"},
		{name: "String Keeps Non Numerical", field: "host", aggregation: "uniqueCount", expected: "uniqueCount"},
		{name: "String Drops Unknown", field: "host", aggregation: "removed", expected: "count"},
		{name: "Unknown Field Untouched", field: "removed.field", aggregation: "max", expected: "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := b.CreateMetricItem(tt.field, tt.aggregation)
			assert.NotEmpty(t, item.ID)
			assert.Equal(t, tt.field, item.Field)
			assert.Equal(t, tt.expected, item.AggregationType)
			assert.Empty(t, item.Filters)
		})
	}
}

func TestIdsAreUnique(t *testing.T) {
	b := newBuilder()
	item := b.CreateMetricItem("duration", "count")
	item = b.AddFilter(item, "duration")
	item = b.AddFilter(item, "duration")

	ids := map[string]struct{}{item.ID: {}}
	for _, f := range item.Filters {
		ids[f.ID] = struct{}{}
	}
	assert.Len(t, ids, 3)
}

func TestDefaultTimePeriod(t *testing.T) {
	tp := builder.DefaultTimePeriod()
	assert.Equal(t, model.TimeModeRelative, tp.Mode)
	assert.Equal(t, "3h ago", tp.Relative)
	assert.Empty(t, tp.Since)
	assert.Empty(t, tp.Until)
}

func TestInitialState(t *testing.T) {
	state := newBuilder().InitialState()

	assert.Equal(t, []string{"global-tax-mapper-api"}, state.Applications)
	assert.Equal(t, "prod", state.Environment)
	require.Len(t, state.MetricItems, 1)
	assert.Equal(t, "duration", state.MetricItems[0].Field)
	assert.Equal(t, "count", state.MetricItems[0].AggregationType)
	assert.Equal(t, builder.DefaultTimePeriod(), state.TimePeriod)
	assert.True(t, state.ExcludeHealthChecks)
	assert.True(t, state.ExcludeBulkEndpoint)
	assert.True(t, state.UseTimeseries)
	assert.Equal(t, "request.uri", state.Facet)

	expected := "FROM Transaction\n" +
		"SELECT count(duration)\n" +
		"WHERE appName IN ('global-tax-mapper-api-prod') AND request.uri NOT IN ('/health', '/health/live', '/health/ready', '/api/v1/mappings/bulk')\n" +
		"TIMESERIES AUTO\n" +
		"SINCE 3 hours ago\n" +
		"UNTIL now\n" +
		"FACET request.uri"
	assert.Equal(t, expected, nrql.Compile(state))
}

func TestUpdateFilter(t *testing.T) {
	b := newBuilder()
	base := model.MetricFilter{ID: "f1", Field: "duration", Operator: model.OpLess, Value: "5"}

	tests := []struct {
		name     string
		patch    builder.FilterPatch
		expField string
		expOp    model.Operator
		expValue string
	}{
		{
			name:     "Value Only",
			patch:    builder.FilterPatch{Value: strPtr("9")},
			expField: "duration", expOp: model.OpLess, expValue: "9",
		},
		{
			name:     "Operator Only",
			patch:    builder.FilterPatch{Operator: opPtr(model.OpGreaterEqual)},
			expField: "duration", expOp: model.OpGreaterEqual, expValue: "5",
		},
		{
			name:     "Field Change Resets Operator",
			patch:    builder.FilterPatch{Field: strPtr("request.method")},
			expField: "request.method", expOp: model.OpEqual, expValue: "5",
		},
		{
			name:     "Field Change Ignores Supplied Operator",
			patch:    builder.FilterPatch{Field: strPtr("request.method"), Operator: opPtr(model.OpIn)},
			expField: "request.method", expOp: model.OpEqual, expValue: "5",
		},
		{
			name:     "Same Field With Operator Keeps Operator",
			patch:    builder.FilterPatch{Field: strPtr("duration"), Operator: opPtr(model.OpEqual)},
			expField: "duration", expOp: model.OpEqual, expValue: "5",
		},
		{
			name:     "Same Field Without Operator Keeps Current",
			patch:    builder.FilterPatch{Field: strPtr("duration")},
			expField: "duration", expOp: model.OpLess, expValue: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.UpdateFilter(base, tt.patch)
			assert.Equal(t, "f1", got.ID)
			assert.Equal(t, tt.expField, got.Field)
			assert.Equal(t, tt.expOp, got.Operator)
			assert.Equal(t, tt.expValue, got.Value)
		})
	}

	negated := true
	got := b.UpdateFilter(base, builder.FilterPatch{Negated: &negated})
	assert.True(t, got.Negated)
	assert.False(t, base.Negated)
}

func TestUpdateMetricItem(t *testing.T) {
	b := newBuilder()
	item := b.CreateMetricItem("duration", "average")

	moved := b.UpdateMetricItem(item, builder.MetricItemPatch{Field: strPtr("request.uri")})
	assert.Equal(t, "request.uri", moved.Field)
	assert.Equal(t, "count", moved.AggregationType)
	assert.Equal(t, item.ID, moved.ID)

	back := b.UpdateMetricItem(moved, builder.MetricItemPatch{Field: strPtr("duration"), AggregationType: strPtr("max")})
	assert.Equal(t, "max", back.AggregationType)

	rejected := b.UpdateMetricItem(moved, builder.MetricItemPatch{AggregationType: strPtr("sum")})
	assert.Equal(t, "count", rejected.AggregationType)
}

func TestFilterListActions(t *testing.T) {
	b := newBuilder()
	item := b.CreateMetricItem("duration", "average")

	item = b.AddFilter(item, "duration")
	item = b.AddFilter(item, "response.status")
	require.Len(t, item.Filters, 2)
	first, second := item.Filters[0].ID, item.Filters[1].ID

	edited := b.ReplaceFilter(item, second, builder.FilterPatch{Value: strPtr("5xx")})
	assert.Equal(t, "5xx", edited.Filters[1].Value)
	assert.Empty(t, item.Filters[1].Value, "original item must not change")

	removed := builder.RemoveFilter(edited, first)
	require.Len(t, removed.Filters, 1)
	assert.Equal(t, second, removed.Filters[0].ID)
	assert.Len(t, edited.Filters, 2)
}

func TestMetricListActions(t *testing.T) {
	b := newBuilder()
	state := b.InitialState()

	grown := b.AddMetric(state, "host", "average")
	require.Len(t, grown.MetricItems, 2)
	assert.Equal(t, "count", grown.MetricItems[1].AggregationType)
	assert.Len(t, state.MetricItems, 1)

	shrunk := builder.RemoveMetric(grown, grown.MetricItems[0].ID)
	require.Len(t, shrunk.MetricItems, 1)
	assert.Equal(t, "host", shrunk.MetricItems[0].Field)
}
