package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"nrql-builder-backend/config"
)

// NewPool opens a pool for cfg.Postgres.DSN and retries the first ping with
// exponential backoff for up to cfg.Postgres.ConnectTimeout. The pool is
// closed when the application stops.
func NewPool(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse Postgres DSN")
		return nil, fmt.Errorf("invalid Postgres DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Unable to create connection pool to Postgres")
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = cfg.Postgres.ConnectTimeout
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Postgres ping failed, retrying")
			return err
		}
		return nil
	}, bo)
	if err != nil {
		pool.Close()
		log.Error().Err(err).Int("attempts", attempt).Msg("Failed to ping Postgres")
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	log.Info().Int("attempts", attempt).Msg("Postgres connection pool created and verified.")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Postgres connection pool...")
			pool.Close()
			return nil
		},
	})
	return pool, nil
}
