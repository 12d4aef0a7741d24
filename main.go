package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linhypo/adapters/memory"
	"linhypo/adapters/postgres"
	"linhypo/app"
	"linhypo/internal"
	"linhypo/internal/config"
	"linhypo/internal/errors"
	"linhypo/internal/migration"
	"linhypo/ports"
	"linhypo/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and applies the schema
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	envErr := godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		internal.DefaultLogger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	defer logger.Sync()
	if envErr != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runRepo ports.RunRepository
	if appConfig.Database.URL != "" {
		db, err := initDatabase(ctx, appConfig)
		if err != nil {
			logger.Error("failed to initialize database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		runRepo = postgres.NewRunRepository(db)
		logger.Info("storing regression runs in PostgreSQL")
	} else {
		runRepo = memory.NewRunRepository()
		logger.Info("DATABASE_URL not set, storing regression runs in memory")
	}

	orchestrator := app.NewOrchestrator(appConfig.Regression, logger)
	service := app.NewRegressionService(orchestrator, runRepo, logger)
	server := ui.NewApp(service, logger).Server(ui.Config{Port: appConfig.Server.Port})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed: %v", err)
		}
	}()

	logger.Info("listening on %s (series terms %d, gamma mode %s)",
		server.Addr, appConfig.Regression.SeriesTerms, appConfig.Regression.GammaMode)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
