package builder

import (
	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/idgen"
	"nrql-builder-backend/internal/model"
)

// DefaultRelativeTime is the relative period of a fresh query.
const DefaultRelativeTime = "3h ago"

// Builder creates and edits query state values. Every method returns a new
// value and leaves its arguments untouched.
type Builder struct {
	catalog *catalog.Catalog
	ids     idgen.Generator
}

func New(cat *catalog.Catalog, ids idgen.Generator) *Builder {
	return &Builder{catalog: cat, ids: ids}
}

// FilterPatch carries the filter attributes a caller supplied; nil means
// "not supplied".
type FilterPatch struct {
	Field    *string         `json:"field,omitempty"`
	Operator *model.Operator `json:"operator,omitempty"`
	Value    *string         `json:"value,omitempty"`
	Negated  *bool           `json:"negated,omitempty"`
}

type MetricItemPatch struct {
	Field           *string `json:"field,omitempty"`
	AggregationType *string `json:"aggregationType,omitempty"`
}

// CreateMetricFilter returns an empty filter on field, or on
// catalog.DefaultFilterField when field is blank, using the operator the
// field's type defaults to.
func (b *Builder) CreateMetricFilter(field string) model.MetricFilter {
	if field == "" {
		field = catalog.DefaultFilterField
	}
	return model.MetricFilter{
		ID:       b.ids.NewID(),
		Field:    field,
		Operator: b.catalog.FieldKind(field).DefaultOperator,
	}
}

// CreateMetricItem returns an item without filters whose aggregation is
// allowed for field.
func (b *Builder) CreateMetricItem(field, aggregationType string) model.MetricQueryItem {
	return model.MetricQueryItem{
		ID:              b.ids.NewID(),
		Field:           field,
		AggregationType: b.normalizeAggregation(field, aggregationType),
		Filters:         []model.MetricFilter{},
	}
}

// normalizeAggregation replaces numerical or unknown aggregations by the
// default count on string fields.
func (b *Builder) normalizeAggregation(field, aggregationType string) string {
	if !b.catalog.IsStringField(field) {
		return aggregationType
	}
	agg, ok := b.catalog.LookupAggregation(aggregationType)
	if !ok || agg.IsNumericalAggregator {
		return catalog.DefaultAggregation
	}
	return aggregationType
}

func DefaultTimePeriod() model.TimePeriod {
	return model.TimePeriod{
		Mode:     model.TimeModeRelative,
		Relative: DefaultRelativeTime,
	}
}

// InitialState is the query a new session starts from.
func (b *Builder) InitialState() model.QueryState {
	return model.QueryState{
		Applications: []string{catalog.DefaultApplication},
		Environment:  catalog.DefaultEnvironment,
		MetricItems: []model.MetricQueryItem{
			b.CreateMetricItem(catalog.DefaultMetricField, catalog.DefaultAggregation),
		},
		TimePeriod:          DefaultTimePeriod(),
		ExcludeHealthChecks: true,
		ExcludeBulkEndpoint: true,
		UseTimeseries:       true,
		Facet:               catalog.DefaultFacet,
	}
}

// UpdateFilter applies patch to f. Moving the filter to another field
// resets the operator to that field's default, whatever operator the patch
// carries.
func (b *Builder) UpdateFilter(f model.MetricFilter, patch FilterPatch) model.MetricFilter {
	fieldChanged := patch.Field != nil && *patch.Field != f.Field
	if patch.Field != nil {
		f.Field = *patch.Field
	}
	if patch.Value != nil {
		f.Value = *patch.Value
	}
	if patch.Negated != nil {
		f.Negated = *patch.Negated
	}
	switch {
	case fieldChanged:
		f.Operator = b.catalog.FieldKind(f.Field).DefaultOperator
	case patch.Operator != nil:
		f.Operator = *patch.Operator
	}
	return f
}

// UpdateMetricItem applies patch to item and renormalizes its aggregation.
func (b *Builder) UpdateMetricItem(item model.MetricQueryItem, patch MetricItemPatch) model.MetricQueryItem {
	if patch.Field != nil {
		item.Field = *patch.Field
	}
	if patch.AggregationType != nil {
		item.AggregationType = *patch.AggregationType
	}
	item.AggregationType = b.normalizeAggregation(item.Field, item.AggregationType)
	item.Filters = cloneFilters(item.Filters)
	return item
}

// AddFilter appends a new filter on field to item.
func (b *Builder) AddFilter(item model.MetricQueryItem, field string) model.MetricQueryItem {
	item.Filters = append(cloneFilters(item.Filters), b.CreateMetricFilter(field))
	return item
}

// ReplaceFilter applies patch to the filter with the given id.
func (b *Builder) ReplaceFilter(item model.MetricQueryItem, filterID string, patch FilterPatch) model.MetricQueryItem {
	filters := cloneFilters(item.Filters)
	for i, f := range filters {
		if f.ID == filterID {
			filters[i] = b.UpdateFilter(f, patch)
		}
	}
	item.Filters = filters
	return item
}

func RemoveFilter(item model.MetricQueryItem, filterID string) model.MetricQueryItem {
	filters := make([]model.MetricFilter, 0, len(item.Filters))
	for _, f := range item.Filters {
		if f.ID != filterID {
			filters = append(filters, f)
		}
	}
	item.Filters = filters
	return item
}

// AddMetric appends a new metric item to state.
func (b *Builder) AddMetric(state model.QueryState, field, aggregationType string) model.QueryState {
	state.MetricItems = append(cloneItems(state.MetricItems), b.CreateMetricItem(field, aggregationType))
	return state
}

// RemoveMetric drops the item with the given id. It does not keep at least
// one item; callers that need that guarantee check before removing.
func RemoveMetric(state model.QueryState, itemID string) model.QueryState {
	items := make([]model.MetricQueryItem, 0, len(state.MetricItems))
	for _, item := range state.MetricItems {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	state.MetricItems = items
	return state
}

func cloneFilters(filters []model.MetricFilter) []model.MetricFilter {
	return append(make([]model.MetricFilter, 0, len(filters)+1), filters...)
}

func cloneItems(items []model.MetricQueryItem) []model.MetricQueryItem {
	return append(make([]model.MetricQueryItem, 0, len(items)+1), items...)
}
