package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/dto"
	"nrql-builder-backend/internal/kafka"
	"nrql-builder-backend/internal/metrics"
	"nrql-builder-backend/internal/repository"
	"nrql-builder-backend/internal/validator"
)

// AuditService re-validates every saved query. It only reports; stored
// records are never changed.
type AuditService interface {
	Run(ctx context.Context) (*dto.AuditSummary, error)
}

type auditService struct {
	repo      repository.SavedQueryRepository
	validator *validator.Validator
	publisher kafka.AuditPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewAuditService(
	repo repository.SavedQueryRepository,
	v *validator.Validator,
	publisher kafka.AuditPublisher,
	m *metrics.Metrics,
) AuditService {
	return &auditService{
		repo:      repo,
		validator: v,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *auditService) Run(ctx context.Context) (*dto.AuditSummary, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		s.metrics.AuditRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("audit could not list saved queries: %w", err)
	}

	checkedAt := s.now().UTC()
	summary := &dto.AuditSummary{Checked: len(queries), Reports: []dto.AuditReport{}}
	for _, q := range queries {
		stored := q.NrqlQuery
		result := s.validator.Validate(q.State, &stored)
		if result.Valid {
			continue
		}
		log.Warn().Str("id", q.ID).Str("name", q.Name).Strs("warnings", result.Warnings).Msg("Saved query is stale")
		summary.Reports = append(summary.Reports, dto.AuditReport{
			SavedQueryID: q.ID,
			Name:         q.Name,
			Warnings:     result.Warnings,
			CheckedAt:    checkedAt,
		})
	}
	summary.Stale = len(summary.Reports)
	s.metrics.AuditStaleQueries.Set(float64(summary.Stale))

	if s.publisher.Enabled() && summary.Stale > 0 {
		if err := s.publisher.Publish(ctx, summary.Reports); err != nil {
			s.metrics.AuditRuns.WithLabelValues("publish_error").Inc()
			return summary, fmt.Errorf("failed to publish audit reports: %w", err)
		}
		summary.Published = true
	}

	s.metrics.AuditRuns.WithLabelValues("ok").Inc()
	log.Info().Int("checked", summary.Checked).Int("stale", summary.Stale).Bool("published", summary.Published).Msg("Saved query audit finished")
	return summary, nil
}
