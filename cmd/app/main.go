package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"StockX/internal/di"
	"StockX/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "optional dotenv file")
	seed := flag.Bool("seed", false, "import csv datasets into the configured series backend and exit")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv %s: %v", *envFile, err)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *seed {
		l, err := di.ProvideLogger(cfg)
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		err = di.SeedSeries(ctx, cfg, l)
		cancel()
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		return
	}

	log.Printf("env=%s series=%s state=%s sequence=%s",
		cfg.Environment, cfg.Storage.SeriesBackend, cfg.Storage.StateBackend, cfg.Sequence.Backend)

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	err = app.Run()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
