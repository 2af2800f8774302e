package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"dayahead-market/internal/api"
	"dayahead-market/internal/api/models"
	"dayahead-market/internal/config"
	"dayahead-market/internal/data"
	"dayahead-market/internal/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	runTTL := flag.Duration("run-ttl", 30*time.Minute, "How long results stay available under /api/v1/runs/:id")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	} else if port := os.Getenv("API_PORT"); port != "" {
		cfg.API.Port = port
	}

	log := logging.Must(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	runs := data.NewRunCache[models.RunResponse](*runTTL)
	stop := make(chan struct{})
	defer close(stop)
	go runs.Janitor(time.Minute, stop)

	router := api.NewRouter(cfg, runs, log)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.API.Port)
	log.Infow("starting API server", "addr", addr,
		"distribution_method", cfg.Clearing.DistributionMethod, "rate_per_second", cfg.API.RatePerSecond)
	if err := router.Run(addr); err != nil {
		log.Fatalw("failed to start server", "error", err)
	}
}
