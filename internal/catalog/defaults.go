package catalog

// Default values referenced by the builder and the initial query state.
const (
	DefaultAggregation = "count"
	DefaultMetricField = "duration"
	DefaultFilterField = ResponseStatusField
	DefaultApplication = "global-tax-mapper-api"
	DefaultEnvironment = "prod"
	DefaultFacet       = "request.uri"
)

// DefaultDefinition returns the built-in registries.
func DefaultDefinition() Definition {
	return Definition{
		Fields: []FieldDefinition{
			{Name: "duration", Label: "Duration", DataType: Numeric},
			{Name: "databaseDuration", Label: "Database Duration", DataType: Numeric},
			{Name: "externalDuration", Label: "External Duration", DataType: Numeric},
			{Name: "queueDuration", Label: "Queue Duration", DataType: Numeric},
			{Name: ResponseStatusField, Label: "Response Status", DataType: String},
			{Name: "request.uri", Label: "Request URI", DataType: String},
			{Name: "request.method", Label: "Request Method", DataType: String},
			{Name: "name", Label: "Transaction Name", DataType: String},
			{Name: "host", Label: "Host", DataType: String},
		},
		Aggregations: []AggregationConfig{
			{Value: "count", Label: "Count", NrqlTemplate: "count({field})"},
			{Value: "uniqueCount", Label: "Unique Count", NrqlTemplate: "uniqueCount({field})"},
			{Value: "average", Label: "Average", NrqlTemplate: "average({field})", IsNumericalAggregator: true},
			{Value: "sum", Label: "Sum", NrqlTemplate: "sum({field})", IsNumericalAggregator: true},
			{Value: "min", Label: "Minimum", NrqlTemplate: "min({field})", IsNumericalAggregator: true},
			{Value: "max", Label: "Maximum", NrqlTemplate: "max({field})", IsNumericalAggregator: true},
			{Value: "median", Label: "Median", NrqlTemplate: "median({field})", IsNumericalAggregator: true},
			{Value: "percentile95", Label: "95th Percentile", NrqlTemplate: "percentile({field}, 95)", IsNumericalAggregator: true},
			{Value: "percentile99", Label: "99th Percentile", NrqlTemplate: "percentile({field}, 99)", IsNumericalAggregator: true},
		},
		Applications: []Option{
			{Value: "global-tax-mapper-api", Label: "Global Tax Mapper API"},
			{Value: "global-tax-mapper-bff", Label: "Global Tax Mapper BFF"},
			{Value: "global-tax-mapper-worker", Label: "Global Tax Mapper Worker"},
		},
		Environments: []Option{
			{Value: "dev", Label: "Development"},
			{Value: "qa", Label: "QA"},
			{Value: "uat", Label: "UAT"},
			{Value: "prod", Label: "Production"},
		},
		Facets: []Option{
			{Value: "none", Label: "None"},
			{Value: "request.uri", Label: "Request URI"},
			{Value: "response.status", Label: "Response Status"},
			{Value: "request.method", Label: "Request Method"},
			{Value: "name", Label: "Transaction Name"},
			{Value: "host", Label: "Host"},
			{Value: "appName", Label: "Application"},
		},
		HealthCheckPaths:  []string{"/health", "/health/live", "/health/ready"},
		BulkEndpointPaths: []string{"/api/v1/mappings/bulk"},
	}
}

var defaultCatalog = mustNew(DefaultDefinition())

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

func mustNew(def Definition) *Catalog {
	c, err := New(def)
	if err != nil {
		panic(err)
	}
	return c
}
