package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendsense/persona-engine/internal/adapters/database/pgsql"
	"github.com/spendsense/persona-engine/internal/apperrors"
	"github.com/spendsense/persona-engine/internal/core/ports/services"
	coresvc "github.com/spendsense/persona-engine/internal/core/services"
	"github.com/spendsense/persona-engine/internal/logging"
	"github.com/spendsense/persona-engine/pkg/config"
	"github.com/spendsense/persona-engine/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		// runMigrations logs the specifics before returning.
		os.Exit(1)
	}

	asOf, err := resolveAsOfDate(cfg.AsOfDate)
	if err != nil {
		logger.Error("Invalid as-of date", slog.String("asOfDate", cfg.AsOfDate), slog.String("error", err.Error()))
		os.Exit(1)
	}

	svcs := buildServices(dbPool, cfg)

	ctx, runID := logging.WithRunLogger(context.Background(), logger)
	runLogger := logging.FromCtx(ctx)
	runLogger.Info("Starting persona batch run",
		slog.String("run_id", runID),
		slog.Time("as_of_date", asOf),
		slog.Any("windows", cfg.Windows),
	)

	summary, err := svcs.Batch.Run(ctx, asOf, cfg.Windows)
	if err != nil {
		runLogger.Error("Batch run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runLogger.Info("Persona batch run finished",
		slog.Int("total_users", summary.TotalUsers),
		slog.Int("succeeded_users", summary.SucceededUsers),
		slog.Int("failed_users", summary.FailedUsers),
		slog.Int("assigned", summary.AssignedCount),
		slog.Int("stable", summary.StableCount),
		slog.Float64("coverage_pct", summary.CoveragePct),
	)

	if summary.FailedUsers > 0 {
		for _, result := range summary.Results {
			if !result.Succeeded {
				runLogger.Warn("User run failed",
					slog.String("user_id", result.UserID),
					slog.String("error", result.Error),
				)
			}
		}
	}

	if !summary.CoverageComplete {
		runLogger.Error("Coverage verification failed",
			slog.String("error", apperrors.ErrIncompleteCoverage.Error()),
			slog.Float64("coverage_pct", summary.CoveragePct))
		os.Exit(1)
	}
}

// buildServices wires the pgsql repositories into the service container.
func buildServices(dbPool *pgxpool.Pool, cfg *config.Config) *services.ServiceContainer {
	store := pgsql.NewTransactionStore(dbPool)
	featureRepo := pgsql.NewFeatureRepository(dbPool)
	personaRepo := pgsql.NewPersonaRepository(dbPool)

	featureSvc := coresvc.NewFeatureService(cfg.Signals)
	personaSvc := coresvc.NewPersonaService(cfg.Thresholds)
	pipelineSvc := coresvc.NewPipelineService(store, featureRepo, personaRepo, featureSvc, personaSvc, cfg.Signals)
	batchSvc := coresvc.NewBatchService(pgsql.NewUserRepository(dbPool), personaRepo, pipelineSvc, cfg.Concurrency)

	return &services.ServiceContainer{
		Features: featureSvc,
		Assigner: personaSvc,
		Pipeline: pipelineSvc,
		Batch:    batchSvc,
	}
}

// resolveAsOfDate parses the configured as-of date, defaulting to today.
func resolveAsOfDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", upErr.Error()))
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
