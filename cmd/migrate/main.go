// Package main 数据库迁移工具
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/joyrent/game-rental-backend/internal/common/config"
	"github.com/joyrent/game-rental-backend/internal/common/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Println("usage: migrate [-config path] <up|down|version>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("migrate")

	m, err := migrate.New(cfg.Database.MigrationsPath, cfg.Database.URL())
	if err != nil {
		log.Fatal("failed to create migrate instance", zap.Error(err))
	}
	defer func() { _, _ = m.Close() }()

	switch command := args[0]; command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations")
			return
		}
		if err != nil {
			log.Fatal("migration up failed", zap.Error(err))
		}
		log.Info("migrations applied successfully")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to rollback")
			return
		}
		if err != nil {
			log.Fatal("migration down failed", zap.Error(err))
		}
		log.Info("migration rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return
		}
		if err != nil {
			log.Fatal("failed to get version", zap.Error(err))
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		log.Fatal("unknown command", zap.String("command", command))
	}
}
