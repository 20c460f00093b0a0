package main

import (
	"context"
	"flag"
	"os"
	"time"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/sequences"
	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/db"
	"revenue_automation_backend/platform/logger"
)

func main() {
	path := flag.String("file", "sequences.yaml", "YAML file with sequence definitions")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	fh, err := os.Open(*path)
	if err != nil {
		log.Error("failed to open sequence file", "path", *path, "error", err)
		os.Exit(1)
	}
	defer fh.Close()

	file, err := sequences.Parse(fh)
	if err != nil {
		log.Error("sequence file rejected", "path", *path, "error", err)
		os.Exit(1)
	}
	if *dryRun {
		log.Info("sequence file is valid", "path", *path, "sequences", len(file.Sequences))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	imported, err := sequences.NewImporter(repository.New(pool), log).Import(ctx, file)
	if err != nil {
		log.Error("sequence import failed", "imported", len(imported), "error", err)
		os.Exit(1)
	}
	log.Info("sequence import finished", "sequences", len(imported))
}
