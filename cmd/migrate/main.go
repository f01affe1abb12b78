package main

import (
	"log"

	"studyquiz/internal/config"
	"studyquiz/internal/database"
	"studyquiz/internal/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	down := pflag.Int("down", 0, "roll back this many migrations instead of migrating up")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer func() { _ = l.Sync() }()

	db, err := database.NewDB(cfg.DB)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *down > 0 {
		if err := database.RollbackMigrations(db, *down); err != nil {
			l.Fatal("Failed to roll back migrations", zap.Int("steps", *down), zap.Error(err))
		}
		return
	}
	if err := database.RunMigrations(db); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
}
