package catalog

import (
	"fmt"
	"strings"

	"nrql-builder-backend/internal/model"
)

// ResponseStatusField is the field whose filter values are compiled as
// status-code patterns (404, 4xx, 5%).
const ResponseStatusField = "response.status"

// FieldPlaceholder is substituted with the metric field in aggregation templates.
const FieldPlaceholder = "{field}"

type DataType string

const (
	Numeric DataType = "numeric"
	String  DataType = "string"
)

// FieldKind groups everything that depends on a field's data type: the
// default operator for new filters, the operators offered, and how an
// operator is inverted when a filter is negated.
type FieldKind struct {
	DataType        DataType
	DefaultOperator model.Operator
	Operators       []model.Operator
	negations       map[model.Operator]model.Operator
}

// Negate returns the operator matching the inverse predicate. Operators
// without an entry in the kind's table are returned unchanged.
func (k FieldKind) Negate(op model.Operator) model.Operator {
	if negated, ok := k.negations[op]; ok {
		return negated
	}
	return op
}

// Allows reports whether op is offered for fields of this kind.
func (k FieldKind) Allows(op model.Operator) bool {
	for _, candidate := range k.Operators {
		if candidate == op {
			return true
		}
	}
	return false
}

var (
	numericKind = FieldKind{
		DataType:        Numeric,
		DefaultOperator: model.OpGreater,
		Operators: []model.Operator{
			model.OpEqual, model.OpGreater, model.OpGreaterEqual, model.OpLess, model.OpLessEqual,
		},
		negations: map[model.Operator]model.Operator{
			model.OpEqual:        model.OpNotEqual,
			model.OpNotEqual:     model.OpEqual,
			model.OpGreater:      model.OpLessEqual,
			model.OpLessEqual:    model.OpGreater,
			model.OpGreaterEqual: model.OpLess,
			model.OpLess:         model.OpGreaterEqual,
		},
	}
	stringKind = FieldKind{
		DataType:        String,
		DefaultOperator: model.OpEqual,
		Operators:       []model.Operator{model.OpEqual, model.OpIn},
		negations: map[model.Operator]model.Operator{
			model.OpEqual: model.OpNotEqual,
			model.OpIn:    model.OpNotIn,
		},
	}
)

// KindOf returns the FieldKind for a data type. Anything that is not
// String behaves as Numeric.
func KindOf(dt DataType) FieldKind {
	if dt == String {
		return stringKind
	}
	return numericKind
}

type FieldDefinition struct {
	Name     string   `json:"name" yaml:"name"`
	Label    string   `json:"label" yaml:"label"`
	DataType DataType `json:"dataType" yaml:"dataType"`
}

func (f FieldDefinition) Kind() FieldKind {
	return KindOf(f.DataType)
}

type AggregationConfig struct {
	Value                 string `json:"value" yaml:"value"`
	Label                 string `json:"label" yaml:"label"`
	NrqlTemplate          string `json:"nrqlTemplate" yaml:"nrqlTemplate"`
	IsNumericalAggregator bool   `json:"isNumericalAggregator" yaml:"isNumericalAggregator"`
}

// Render substitutes field into the aggregation template.
func (a AggregationConfig) Render(field string) string {
	return strings.Replace(a.NrqlTemplate, FieldPlaceholder, field, 1)
}

// Option is an entry of the application, environment and facet registries.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Definition is the raw content of a catalog. It is what LoadFile reads.
type Definition struct {
	Fields            []FieldDefinition   `yaml:"fields"`
	Aggregations      []AggregationConfig `yaml:"aggregations"`
	Applications      []Option            `yaml:"applications"`
	Environments      []Option            `yaml:"environments"`
	Facets            []Option            `yaml:"facets"`
	HealthCheckPaths  []string            `yaml:"healthCheckPaths"`
	BulkEndpointPaths []string            `yaml:"bulkEndpointPaths"`
}

// Catalog is an immutable set of registries. All lookups are safe for
// concurrent use.
type Catalog struct {
	def          Definition
	fields       map[string]FieldDefinition
	aggregations map[string]AggregationConfig
	applications map[string]struct{}
	environments map[string]struct{}
	facets       map[string]struct{}
}

// New indexes def. It fails on duplicate keys, unknown data types and
// aggregation templates without a field placeholder.
func New(def Definition) (*Catalog, error) {
	c := &Catalog{
		def:          def,
		fields:       make(map[string]FieldDefinition, len(def.Fields)),
		aggregations: make(map[string]AggregationConfig, len(def.Aggregations)),
	}
	for _, f := range def.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field with empty name")
		}
		if f.DataType != Numeric && f.DataType != String {
			return nil, fmt.Errorf("field %s: unknown data type %q", f.Name, f.DataType)
		}
		if _, dup := c.fields[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %s", f.Name)
		}
		c.fields[f.Name] = f
	}
	for _, a := range def.Aggregations {
		if !strings.Contains(a.NrqlTemplate, FieldPlaceholder) {
			return nil, fmt.Errorf("aggregation %s: template %q has no %s placeholder", a.Value, a.NrqlTemplate, FieldPlaceholder)
		}
		if _, dup := c.aggregations[a.Value]; dup {
			return nil, fmt.Errorf("duplicate aggregation %s", a.Value)
		}
		c.aggregations[a.Value] = a
	}
	var err error
	if c.applications, err = indexOptions("application", def.Applications); err != nil {
		return nil, err
	}
	if c.environments, err = indexOptions("environment", def.Environments); err != nil {
		return nil, err
	}
	if c.facets, err = indexOptions("facet", def.Facets); err != nil {
		return nil, err
	}
	return c, nil
}

func indexOptions(kind string, options []Option) (map[string]struct{}, error) {
	index := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, dup := index[o.Value]; dup {
			return nil, fmt.Errorf("duplicate %s %s", kind, o.Value)
		}
		index[o.Value] = struct{}{}
	}
	return index, nil
}

func (c *Catalog) LookupField(name string) (FieldDefinition, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// FieldKind returns the kind of the named field. Unknown fields are
// numeric so that saved queries referencing retired fields still compile.
func (c *Catalog) FieldKind(name string) FieldKind {
	if f, ok := c.fields[name]; ok {
		return f.Kind()
	}
	return numericKind
}

// IsStringField is false for unknown fields.
func (c *Catalog) IsStringField(name string) bool {
	return c.FieldKind(name).DataType == String
}

func (c *Catalog) LookupAggregation(value string) (AggregationConfig, bool) {
	a, ok := c.aggregations[value]
	return a, ok
}

func (c *Catalog) HasApplication(value string) bool {
	_, ok := c.applications[value]
	return ok
}

func (c *Catalog) HasEnvironment(value string) bool {
	_, ok := c.environments[value]
	return ok
}

func (c *Catalog) HasFacet(value string) bool {
	_, ok := c.facets[value]
	return ok
}

func (c *Catalog) Fields() []FieldDefinition {
	return append([]FieldDefinition(nil), c.def.Fields...)
}

func (c *Catalog) Aggregations() []AggregationConfig {
	return append([]AggregationConfig(nil), c.def.Aggregations...)
}

func (c *Catalog) Applications() []Option {
	return append([]Option(nil), c.def.Applications...)
}

func (c *Catalog) Environments() []Option {
	return append([]Option(nil), c.def.Environments...)
}

func (c *Catalog) Facets() []Option {
	return append([]Option(nil), c.def.Facets...)
}

// HealthCheckPaths are excluded by the excludeHealthChecks flag, in order.
func (c *Catalog) HealthCheckPaths() []string {
	return append([]string(nil), c.def.HealthCheckPaths...)
}

// BulkEndpointPaths are excluded by the excludeBulkEndpoint flag, in order.
func (c *Catalog) BulkEndpointPaths() []string {
	return append([]string(nil), c.def.BulkEndpointPaths...)
}
