package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/dto"
	"nrql-builder-backend/internal/idgen"
	"nrql-builder-backend/internal/metrics"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/nrql"
	"nrql-builder-backend/internal/repository"
	"nrql-builder-backend/internal/validator"
)

type SavedQueryService interface {
	Create(ctx context.Context, req dto.SaveQueryRequest) (*model.SavedQuery, error)
	// List returns saved queries oldest first. A non-zero since drops the
	// ones created before it.
	List(ctx context.Context, since time.Time) ([]model.SavedQuery, error)
	Get(ctx context.Context, id string) (*model.SavedQuery, error)
	Delete(ctx context.Context, id string) error
	Validate(ctx context.Context, id string) (validator.Result, error)
}

type savedQueryService struct {
	repo      repository.SavedQueryRepository
	compiler  *nrql.Compiler
	validator *validator.Validator
	ids       idgen.Generator
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewSavedQueryService(
	repo repository.SavedQueryRepository,
	compiler *nrql.Compiler,
	v *validator.Validator,
	ids idgen.Generator,
	m *metrics.Metrics,
) SavedQueryService {
	return &savedQueryService{
		repo:      repo,
		compiler:  compiler,
		validator: v,
		ids:       ids,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *savedQueryService) Create(ctx context.Context, req dto.SaveQueryRequest) (*model.SavedQuery, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidQuery)
	}
	query := s.compiler.Compile(req.State)
	if nrql.IsErrorQuery(query) {
		s.observe("create", "rejected")
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, strings.TrimPrefix(query, "-- "))
	}

	saved := model.SavedQuery{
		ID:        s.ids.NewID(),
		Name:      name,
		NrqlQuery: query,
		State:     req.State,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, saved); err != nil {
		s.observe("create", "error")
		return nil, fmt.Errorf("failed to save query: %w", err)
	}
	s.observe("create", "ok")
	log.Info().Str("id", saved.ID).Str("name", saved.Name).Msg("Saved query")
	return &saved, nil
}

func (s *savedQueryService) List(ctx context.Context, since time.Time) ([]model.SavedQuery, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		s.observe("list", "error")
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	s.observe("list", "ok")
	if since.IsZero() {
		return queries, nil
	}
	filtered := make([]model.SavedQuery, 0, len(queries))
	for _, q := range queries {
		if !q.CreatedAt.Before(since) {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

func (s *savedQueryService) Get(ctx context.Context, id string) (*model.SavedQuery, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		s.observe("get", resultOf(err))
		return nil, err
	}
	s.observe("get", "ok")
	return q, nil
}

func (s *savedQueryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.observe("delete", resultOf(err))
		return err
	}
	s.observe("delete", "ok")
	log.Info().Str("id", id).Msg("Deleted saved query")
	return nil
}

// Validate checks a stored query against the current catalog and against
// what its state compiles to now.
func (s *savedQueryService) Validate(ctx context.Context, id string) (validator.Result, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return validator.Result{}, err
	}
	result := s.validator.Validate(q.State, &q.NrqlQuery)
	label := metrics.ValidationValid
	if !result.Valid {
		label = metrics.ValidationStale
		log.Warn().Str("id", q.ID).Strs("warnings", result.Warnings).Msg("Saved query is stale")
	}
	s.metrics.Validations.WithLabelValues(label).Inc()
	return result, nil
}

func (s *savedQueryService) observe(operation, result string) {
	s.metrics.SavedQueries.WithLabelValues(operation, result).Inc()
}

func resultOf(err error) string {
	if errors.Is(err, repository.ErrSavedQueryNotFound) {
		return "not_found"
	}
	return "error"
}
