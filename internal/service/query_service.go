package service

import (
	"errors"

	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/builder"
	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/dto"
	"nrql-builder-backend/internal/metrics"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/nrql"
	"nrql-builder-backend/internal/validator"
)

var (
	ErrInvalidQuery = errors.New("query state does not compile")
	ErrLastMetric   = errors.New("a query needs at least one metric")
)

// QueryService exposes the stateless query building operations.
type QueryService interface {
	Catalog() dto.CatalogResponse
	InitialState() model.QueryState
	DefaultTimePeriod() model.TimePeriod
	Compile(state model.QueryState) dto.CompileResponse
	Validate(req dto.ValidateRequest) validator.Result
	CreateMetricItem(req dto.CreateMetricItemRequest) model.MetricQueryItem
	CreateMetricFilter(req dto.CreateFilterRequest) model.MetricFilter
	AddMetric(req dto.AddMetricRequest) model.QueryState
	RemoveMetric(req dto.RemoveMetricRequest) (model.QueryState, error)
	UpdateMetric(req dto.UpdateMetricRequest) model.MetricQueryItem
	AddFilter(req dto.AddFilterRequest) model.MetricQueryItem
	UpdateFilter(req dto.UpdateFilterRequest) model.MetricQueryItem
	RemoveFilter(req dto.RemoveFilterRequest) model.MetricQueryItem
}

type queryService struct {
	catalog   *catalog.Catalog
	compiler  *nrql.Compiler
	builder   *builder.Builder
	validator *validator.Validator
	metrics   *metrics.Metrics
}

func NewQueryService(
	cat *catalog.Catalog,
	compiler *nrql.Compiler,
	b *builder.Builder,
	v *validator.Validator,
	m *metrics.Metrics,
) QueryService {
	return &queryService{
		catalog:   cat,
		compiler:  compiler,
		builder:   b,
		validator: v,
		metrics:   m,
	}
}

func (s *queryService) Catalog() dto.CatalogResponse {
	defs := s.catalog.Fields()
	fields := make([]dto.CatalogField, 0, len(defs))
	for _, def := range defs {
		kind := def.Kind()
		fields = append(fields, dto.CatalogField{
			FieldDefinition: def,
			DefaultOperator: kind.DefaultOperator,
			Operators:       kind.Operators,
		})
	}
	return dto.CatalogResponse{
		Fields:       fields,
		Aggregations: s.catalog.Aggregations(),
		Applications: s.catalog.Applications(),
		Environments: s.catalog.Environments(),
		Facets:       s.catalog.Facets(),
	}
}

func (s *queryService) InitialState() model.QueryState {
	return s.builder.InitialState()
}

func (s *queryService) DefaultTimePeriod() model.TimePeriod {
	return builder.DefaultTimePeriod()
}

func (s *queryService) Compile(state model.QueryState) dto.CompileResponse {
	query := s.compiler.Compile(state)
	result := compileResult(query)
	s.metrics.Compilations.WithLabelValues(result).Inc()
	log.Debug().Str("result", result).Int("metric_items", len(state.MetricItems)).Msg("Compiled query")
	return dto.CompileResponse{Query: query, IsError: nrql.IsErrorQuery(query)}
}

func compileResult(query string) string {
	switch query {
	case nrql.ErrNoApplications:
		return metrics.ResultNoApplication
	case nrql.ErrNoMetrics:
		return metrics.ResultNoMetric
	case nrql.ErrInvalidRelativeTime:
		return metrics.ResultInvalidTime
	default:
		return metrics.ResultOK
	}
}

func (s *queryService) Validate(req dto.ValidateRequest) validator.Result {
	result := s.validator.Validate(req.State, req.SavedQuery)
	s.observeValidation(result)
	return result
}

func (s *queryService) observeValidation(result validator.Result) {
	label := metrics.ValidationValid
	if !result.Valid {
		label = metrics.ValidationStale
	}
	s.metrics.Validations.WithLabelValues(label).Inc()
}

func (s *queryService) CreateMetricItem(req dto.CreateMetricItemRequest) model.MetricQueryItem {
	aggregation := req.AggregationType
	if aggregation == "" {
		aggregation = catalog.DefaultAggregation
	}
	return s.builder.CreateMetricItem(req.Field, aggregation)
}

func (s *queryService) CreateMetricFilter(req dto.CreateFilterRequest) model.MetricFilter {
	return s.builder.CreateMetricFilter(req.Field)
}

func (s *queryService) AddMetric(req dto.AddMetricRequest) model.QueryState {
	aggregation := req.AggregationType
	if aggregation == "" {
		aggregation = catalog.DefaultAggregation
	}
	return s.builder.AddMetric(req.State, req.Field, aggregation)
}

// RemoveMetric refuses to drop the last remaining item of a state.
func (s *queryService) RemoveMetric(req dto.RemoveMetricRequest) (model.QueryState, error) {
	remaining := builder.RemoveMetric(req.State, req.MetricID)
	if len(remaining.MetricItems) == 0 {
		return req.State, ErrLastMetric
	}
	return remaining, nil
}

func (s *queryService) UpdateMetric(req dto.UpdateMetricRequest) model.MetricQueryItem {
	return s.builder.UpdateMetricItem(req.Item, req.Patch)
}

func (s *queryService) AddFilter(req dto.AddFilterRequest) model.MetricQueryItem {
	return s.builder.AddFilter(req.Item, req.Field)
}

func (s *queryService) UpdateFilter(req dto.UpdateFilterRequest) model.MetricQueryItem {
	return s.builder.ReplaceFilter(req.Item, req.FilterID, req.Patch)
}

func (s *queryService) RemoveFilter(req dto.RemoveFilterRequest) model.MetricQueryItem {
	return builder.RemoveFilter(req.Item, req.FilterID)
}
