package main

import (
	"flag"
	"log"
	"os"

	"UMKMForecast/internal/di"
	"UMKMForecast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s forecast=%s redis=%t kafka=%t queue=%t",
		cfg.Environment, cfg.Forecast.BaseURL, cfg.Redis.Enabled, cfg.Kafka.Enabled, cfg.Queue.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Blocks until SIGINT/SIGTERM.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
