package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"CosmicOptic/internal/di"
	"CosmicOptic/internal/repository"
	"CosmicOptic/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	seedPath := flag.String("seed", "", "copy the given YAML catalog into ClickHouse and exit")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *seedPath != "" {
		if err := seed(cfg, *seedPath); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		log.Printf("catalog %s seeded into %s", *seedPath, cfg.Catalog.Table)
		return
	}

	log.Printf("env=%s catalog=%s kafka=%v", cfg.Environment, cfg.Catalog.Source, cfg.Kafka.Enabled)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

func seed(cfg *config.Config, path string) error {
	cfg.Catalog.Source = "clickhouse"
	cfg.ClickHouse.InitSchema = true
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	samples, err := repository.NewFileCatalogSource(path).Load(ctx)
	if err != nil {
		return err
	}
	return repository.NewCHCatalogSource(ch, cfg.Catalog.Table).Seed(ctx, samples)
}
