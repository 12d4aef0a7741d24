package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"linhypo/adapters/postgres"
	"linhypo/internal"
	"linhypo/internal/errors"
	"linhypo/internal/migration"
	"linhypo/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	logger := internal.DefaultLogger
	defer logger.Sync()

	if len(os.Args) < 2 {
		logger.Error("Usage: migrate <database_url> [runs_dir]")
		os.Exit(2)
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		logger.Error("Schema migration failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Schema at version %s", runner.Version())

	if len(os.Args) < 3 {
		return
	}

	runsDir := os.Args[2]
	files, err := findRunFiles(runsDir)
	if err != nil {
		logger.Error("Failed to list run files in %s: %v", runsDir, err)
		os.Exit(1)
	}
	logger.Info("Found %d run files to import", len(files))

	repo := postgres.NewRunRepository(db)
	imported, skipped := 0, 0
	for _, file := range files {
		run, err := loadRunFromFile(file)
		if err != nil {
			logger.Warn("Skipping %s: %v", file, err)
			skipped++
			continue
		}
		if err := repo.Save(ctx, run); err != nil {
			logger.Warn("Failed to store %s: %v", file, err)
			skipped++
			continue
		}
		imported++
	}

	logger.Info("Import finished: %d imported, %d skipped", imported, skipped)
}

// findRunFiles returns every .json file under dir
func findRunFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadRunFromFile reads a run as written by the CLI with --format json
func loadRunFromFile(path string) (*models.RegressionRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var run models.RegressionRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	if run.Result == nil {
		return nil, errors.InvalidInput("run has no result")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Name == "" {
		run.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return &run, nil
}
