package model

// Operator is a comparison operator usable in a metric filter.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpIn           Operator = "IN"
	OpNotIn        Operator = "NOT IN"
)

// TimeMode selects how a TimePeriod is rendered.
type TimeMode string

const (
	TimeModeAbsolute TimeMode = "absolute"
	TimeModeRelative TimeMode = "relative"
)

// FacetNone is the facet sentinel that disables the FACET clause.
const FacetNone = "none"

type MetricFilter struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Negated  bool     `json:"negated"`
	Value    string   `json:"value"` // raw, possibly comma-separated
}

type MetricQueryItem struct {
	ID              string         `json:"id"`
	Field           string         `json:"field"`
	AggregationType string         `json:"aggregationType"`
	Filters         []MetricFilter `json:"filters"`
}

// TimePeriod holds datetimes in the "YYYY-MM-DDTHH:mm" shape without a zone.
type TimePeriod struct {
	Mode     TimeMode `json:"mode"`
	Since    string   `json:"since,omitempty"`
	Until    string   `json:"until,omitempty"`
	Relative string   `json:"relative"`
}

// QueryState is the complete input of the query compiler.
type QueryState struct {
	Applications        []string          `json:"applications"`
	Environment         string            `json:"environment"`
	MetricItems         []MetricQueryItem `json:"metricItems"`
	TimePeriod          TimePeriod        `json:"timePeriod"`
	ExcludeHealthChecks bool              `json:"excludeHealthChecks"`
	ExcludeBulkEndpoint bool              `json:"excludeBulkEndpoint"`
	UseTimeseries       bool              `json:"useTimeseries"`
	Facet               string            `json:"facet"`
}

// HasFacet reports whether the state asks for a FACET clause. Only
// FacetNone turns it off; an empty facet still renders.
func (s QueryState) HasFacet() bool {
	return s.Facet != FacetNone
}
