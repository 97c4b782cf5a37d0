package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrql-builder-backend/internal/builder"
	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/dto"
	"nrql-builder-backend/internal/idgen"
	"nrql-builder-backend/internal/metrics"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/nrql"
	"nrql-builder-backend/internal/repository"
	"nrql-builder-backend/internal/store"
	"nrql-builder-backend/internal/validator"
)

type fixture struct {
	catalog   *catalog.Catalog
	compiler  *nrql.Compiler
	builder   *builder.Builder
	validator *validator.Validator
	metrics   *metrics.Metrics
	repo      repository.SavedQueryRepository
}

func newFixture() *fixture {
	cat := catalog.Default()
	compiler := nrql.NewCompiler(cat,
		nrql.WithClock(func() time.Time { return time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC) }),
		nrql.WithLocation(time.UTC))
	return &fixture{
		catalog:   cat,
		compiler:  compiler,
		builder:   builder.New(cat, idgen.NewSequence("id")),
		validator: validator.New(cat, compiler),
		metrics:   metrics.New(prometheus.NewRegistry()),
		repo:      store.NewInMemorySavedQueryStore(),
	}
}

func (f *fixture) queryService() QueryService {
	return NewQueryService(f.catalog, f.compiler, f.builder, f.validator, f.metrics)
}

func (f *fixture) savedQueryService(now func() time.Time) SavedQueryService {
	svc := NewSavedQueryService(f.repo, f.compiler, f.validator, idgen.NewSequence("q"), f.metrics).(*savedQueryService)
	svc.now = now
	return svc
}

func TestQueryServiceCompileCountsOutcomes(t *testing.T) {
	f := newFixture()
	svc := f.queryService()

	ok := svc.Compile(svc.InitialState())
	assert.False(t, ok.IsError)
	assert.Contains(t, ok.Query, "FROM Transaction\n")

	noApps := svc.InitialState()
	noApps.Applications = nil
	failed := svc.Compile(noApps)
	assert.True(t, failed.IsError)
	assert.Equal(t, nrql.ErrNoApplications, failed.Query)

	badTime := svc.InitialState()
	badTime.TimePeriod.Relative = "whenever"
	assert.Equal(t, nrql.ErrInvalidRelativeTime, svc.Compile(badTime).Query)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.ResultNoApplication)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.ResultInvalidTime)))
}

func TestQueryServiceCatalogListsOperators(t *testing.T) {
	svc := newFixture().queryService()
	resp := svc.Catalog()

	byName := map[string]dto.CatalogField{}
	for _, f := range resp.Fields {
		byName[f.Name] = f
	}
	require.Contains(t, byName, "duration")
	require.Contains(t, byName, "response.status")
	assert.Equal(t, model.OpGreater, byName["duration"].DefaultOperator)
	assert.Equal(t, model.OpEqual, byName["response.status"].DefaultOperator)
	assert.Contains(t, byName["response.status"].Operators, model.OpIn)
	assert.NotEmpty(t, resp.Aggregations)
	assert.NotEmpty(t, resp.Facets)
}

func TestQueryServiceBuilderActions(t *testing.T) {
	svc := newFixture().queryService()

	item := svc.CreateMetricItem(dto.CreateMetricItemRequest{Field: "duration"})
	assert.Equal(t, "count", item.AggregationType)

	filter := svc.CreateMetricFilter(dto.CreateFilterRequest{})
	assert.Equal(t, "response.status", filter.Field)
	assert.Equal(t, model.OpEqual, filter.Operator)

	state := svc.InitialState()
	state = svc.AddMetric(dto.AddMetricRequest{State: state, Field: "request.uri", AggregationType: "average"})
	require.Len(t, state.MetricItems, 2)
	assert.Equal(t, "count", state.MetricItems[1].AggregationType)

	withFilter := svc.AddFilter(dto.AddFilterRequest{Item: state.MetricItems[0], Field: "duration"})
	require.Len(t, withFilter.Filters, 1)

	value := "100"
	updated := svc.UpdateFilter(dto.UpdateFilterRequest{
		Item:     withFilter,
		FilterID: withFilter.Filters[0].ID,
		Patch:    builder.FilterPatch{Value: &value},
	})
	assert.Equal(t, "100", updated.Filters[0].Value)

	removed := svc.RemoveFilter(dto.RemoveFilterRequest{Item: updated, FilterID: updated.Filters[0].ID})
	assert.Empty(t, removed.Filters)

	agg := "max"
	moved := svc.UpdateMetric(dto.UpdateMetricRequest{Item: state.MetricItems[0], Patch: builder.MetricItemPatch{AggregationType: &agg}})
	assert.Equal(t, "max", moved.AggregationType)

	shrunk, err := svc.RemoveMetric(dto.RemoveMetricRequest{State: state, MetricID: state.MetricItems[0].ID})
	require.NoError(t, err)
	require.Len(t, shrunk.MetricItems, 1)

	_, err = svc.RemoveMetric(dto.RemoveMetricRequest{State: shrunk, MetricID: shrunk.MetricItems[0].ID})
	assert.ErrorIs(t, err, ErrLastMetric)
}

func TestQueryServiceValidate(t *testing.T) {
	f := newFixture()
	svc := f.queryService()
	state := svc.InitialState()
	saved := svc.Compile(state).Query

	assert.True(t, svc.Validate(dto.ValidateRequest{State: state, SavedQuery: &saved}).Valid)

	state.Environment = "legacy"
	result := svc.Validate(dto.ValidateRequest{State: state})
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"Environment 'legacy' is no longer available"}, result.Warnings)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Validations.WithLabelValues(metrics.ValidationValid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Validations.WithLabelValues(metrics.ValidationStale)))
}

func TestSavedQueryServiceLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := f.savedQueryService(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	})
	state := f.builder.InitialState()

	first, err := svc.Create(ctx, dto.SaveQueryRequest{Name: " Latency ", State: state})
	require.NoError(t, err)
	assert.Equal(t, "q-1", first.ID)
	assert.Equal(t, "Latency", first.Name)
	assert.Equal(t, f.compiler.Compile(state), first.NrqlQuery)

	second, err := svc.Create(ctx, dto.SaveQueryRequest{Name: "Errors", State: state})
	require.NoError(t, err)

	all, err := svc.List(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	recent, err := svc.List(ctx, second.CreatedAt)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.ID, recent[0].ID)

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.NrqlQuery, got.NrqlQuery)

	result, err := svc.Validate(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrSavedQueryNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), repository.ErrSavedQueryNotFound)
	_, err = svc.Validate(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrSavedQueryNotFound)
}

func TestSavedQueryServiceRejectsErrorQueries(t *testing.T) {
	f := newFixture()
	svc := f.savedQueryService(time.Now)
	state := f.builder.InitialState()
	state.MetricItems = nil

	_, err := svc.Create(context.Background(), dto.SaveQueryRequest{Name: "Broken", State: state})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Contains(t, err.Error(), "Select at least one metric")

	_, err = svc.Create(context.Background(), dto.SaveQueryRequest{Name: "  ", State: f.builder.InitialState()})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	all, err := svc.List(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

type recordingPublisher struct {
	enabled bool
	reports []dto.AuditReport
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, reports []dto.AuditReport) error {
	if p.err != nil {
		return p.err
	}
	p.reports = append(p.reports, reports...)
	return nil
}

func (p *recordingPublisher) Enabled() bool { return p.enabled }

func (p *recordingPublisher) Close() error { return nil }

func TestAuditServiceReportsStaleQueries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	state := f.builder.InitialState()

	fresh := model.SavedQuery{ID: "fresh", Name: "Fresh", State: state, NrqlQuery: f.compiler.Compile(state)}
	drifted := model.SavedQuery{ID: "drifted", Name: "Drifted", State: state, NrqlQuery: "FROM Transaction SELECT count(*)"}
	legacyState := f.builder.InitialState()
	legacyState.Environment = "legacy"
	legacy := model.SavedQuery{ID: "legacy", Name: "Legacy", State: legacyState, NrqlQuery: f.compiler.Compile(legacyState)}
	for _, q := range []model.SavedQuery{fresh, drifted, legacy} {
		require.NoError(t, f.repo.Save(ctx, q))
	}

	publisher := &recordingPublisher{enabled: true}
	svc := NewAuditService(f.repo, f.validator, publisher, f.metrics).(*auditService)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }

	summary, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 2, summary.Stale)
	assert.True(t, summary.Published)
	require.Len(t, publisher.reports, 2)

	byID := map[string]dto.AuditReport{}
	for _, r := range publisher.reports {
		byID[r.SavedQueryID] = r
	}
	assert.Equal(t, []string{"Query output has changed since this query was saved"}, byID["drifted"].Warnings)
	assert.Equal(t, []string{"Environment 'legacy' is no longer available"}, byID["legacy"].Warnings)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.AuditStaleQueries))

	stored, err := f.repo.Get(ctx, "drifted")
	require.NoError(t, err)
	assert.Equal(t, "FROM Transaction SELECT count(*)", stored.NrqlQuery)
}

func TestAuditServicePublishing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	state := f.builder.InitialState()
	require.NoError(t, f.repo.Save(ctx, model.SavedQuery{ID: "drifted", State: state, NrqlQuery: "stale"}))

	disabled := &recordingPublisher{}
	summary, err := NewAuditService(f.repo, f.validator, disabled, f.metrics).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Stale)
	assert.False(t, summary.Published)
	assert.Empty(t, disabled.reports)

	failing := &recordingPublisher{enabled: true, err: errors.New("broker down")}
	summary, err = NewAuditService(f.repo, f.validator, failing, f.metrics).Run(ctx)
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.False(t, summary.Published)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuditRuns.WithLabelValues("publish_error")))
}
