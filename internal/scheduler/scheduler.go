package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"nrql-builder-backend/config"
	"nrql-builder-backend/internal/service"
)

// NewCron returns a scheduler whose specs start with a seconds field.
func NewCron() *cron.Cron {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	return cron.New(cron.WithParser(parser))
}

// AddAuditJob schedules auditSvc on schedule. Overlapping runs are skipped.
func AddAuditJob(c *cron.Cron, schedule string, auditSvc service.AuditService) (cron.EntryID, error) {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		if _, err := auditSvc.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error during scheduled saved query audit")
		}
	}))
	id, err := c.AddJob(schedule, job)
	if err != nil {
		return 0, fmt.Errorf("invalid audit schedule %q: %w", schedule, err)
	}
	return id, nil
}

// NewScheduler starts the audit job with the application and stops it on
// shutdown. It returns nil when auditing is disabled.
func NewScheduler(lc fx.Lifecycle, cfg *config.Config, auditSvc service.AuditService) (*cron.Cron, error) {
	if !cfg.Audit.Enabled {
		log.Info().Msg("Saved query audit disabled")
		return nil, nil
	}
	c := NewCron()
	schedule := cfg.Audit.Schedule
	if _, err := AddAuditJob(c, schedule, auditSvc); err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("Failed to add cron job")
		return nil, err
	}
	log.Info().Str("schedule", schedule).Msg("Scheduled saved query audit job")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c, nil
}
