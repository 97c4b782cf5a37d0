package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"nrql-builder-backend/config"
	"nrql-builder-backend/internal/builder"
	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/controller"
	"nrql-builder-backend/internal/filestate"
	"nrql-builder-backend/internal/idgen"
	"nrql-builder-backend/internal/kafka"
	"nrql-builder-backend/internal/metrics"
	"nrql-builder-backend/internal/nrql"
	"nrql-builder-backend/internal/postgres"
	"nrql-builder-backend/internal/repository"
	"nrql-builder-backend/internal/scheduler"
	"nrql-builder-backend/internal/service"
	"nrql-builder-backend/internal/store"
	"nrql-builder-backend/internal/validator"
)

// @title           NRQL Query Builder API
// @version         1.0
// @description     Builds New Relic NRQL query text from structured query state, and stores and audits saved queries.

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         catalog
// @tag.description  Fields, aggregations and options a query may reference

// @tag.name         queries
// @tag.description  Query compilation and validation

// @tag.name         actions
// @tag.description  Query state editing

// @tag.name         saved-queries
// @tag.description  Saved query storage and staleness checks

func main() {
	app := fx.New(
		// Core Dependencies
		fx.Provide(
			NewConfig,
			NewCatalog,
			NewCompiler,
			NewValidator,
			idgen.NewUUIDGenerator,
			builder.New,
		),
		// Infrastructure Dependencies
		fx.Provide(
			NewGinEngine,
			metrics.NewRegistry,
			NewMetrics,
			NewSavedQueryRepository,
			kafka.NewAuditPublisher,
			service.NewQueryService,
			service.NewSavedQueryService,
			service.NewAuditService,
			controller.NewQueryController,
			controller.NewSavedQueryController,
		),
		fx.Invoke(
			ConfigureLogging,
			RegisterAPIRoutes,
			RegisterScheduler,
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 45*time.Second) // covers the Postgres connect retry
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}
	log.Info().Msg("Application stopped. Exiting.")
}

func NewConfig() (*config.Config, error) {
	return config.NewConfig()
}

func ConfigureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func NewCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.FilePath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.Catalog.FilePath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Catalog.FilePath).Msg("Failed to load catalog file")
		return nil, err
	}
	log.Info().Str("path", cfg.Catalog.FilePath).Int("fields", len(cat.Fields())).Msg("Catalog loaded")
	return cat, nil
}

func NewCompiler(cfg *config.Config, cat *catalog.Catalog) (*nrql.Compiler, error) {
	if cfg.DisplayZone == "" {
		return nrql.NewCompiler(cat), nil
	}
	loc, err := time.LoadLocation(cfg.DisplayZone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", cfg.DisplayZone, err)
	}
	return nrql.NewCompiler(cat, nrql.WithLocation(loc)), nil
}

func NewValidator(cat *catalog.Catalog, compiler *nrql.Compiler) *validator.Validator {
	return validator.New(cat, compiler)
}

func NewMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func NewSavedQueryRepository(lc fx.Lifecycle, cfg *config.Config) (repository.SavedQueryRepository, error) {
	switch cfg.SavedQuery.Backend {
	case config.BackendMemory:
		log.Info().Msg("Using in-memory saved query store")
		return store.NewInMemorySavedQueryStore(), nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(lc, cfg)
		if err != nil {
			return nil, err
		}
		return newPostgresRepository(pool, cfg.Postgres.Table)
	case config.BackendFile, "":
		log.Info().Str("path", cfg.SavedQuery.FilePath).Msg("Using file saved query store")
		return filestate.NewSavedQueryRepository(cfg.SavedQuery.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown SAVED_QUERY_BACKEND %q", cfg.SavedQuery.Backend)
	}
}

func newPostgresRepository(pool *pgxpool.Pool, table string) (repository.SavedQueryRepository, error) {
	setupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return postgres.NewSavedQueryRepository(setupCtx, pool, table)
}

func NewGinEngine(reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	return r
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	queryController *controller.QueryController,
	savedQueryController *controller.SavedQueryController,
) {
	controller.RegisterQueryRoutes(router, queryController)
	controller.RegisterSavedQueryRoutes(router, savedQueryController)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

// --- Invoker Functions ---

func RegisterScheduler(lc fx.Lifecycle, cfg *config.Config, auditSvc service.AuditService) error {
	_, err := scheduler.NewScheduler(lc, cfg, auditSvc)
	return err
}
