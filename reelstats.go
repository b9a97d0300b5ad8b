package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reelstats/reelstats/api"
	"github.com/reelstats/reelstats/cfg"
	"github.com/reelstats/reelstats/db"
	"github.com/reelstats/reelstats/ingest"
	"github.com/reelstats/reelstats/telemetry"
)

func main() {
	flag.Parse()

	// Load configuration
	if err := cfg.Load(*cfg.ConfigPathFlag); err != nil {
		panic(err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter()
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stdout
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Info().Msg("ReelStats - CSV ratings ingestion and charting service")
	log.Debug().Msg("Initializing telemetry")
	telemetry.InitializeTelemetry(cfg.Config.Prometheus.Enabled)
	telemetry.InitMetrics()

	// Open the store; ensures schema on every start
	store, err := db.NewStore(cfg.Config.Database.Path, cfg.Config.Database.BusyTimeoutMS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
		return
	}
	defer store.Close()

	pipeline := ingest.NewPipeline(store)

	handlers, err := api.NewHandlers(store, pipeline, cfg.Config.HTTP.MaxUploadMB, cfg.Config.Cache.ChartEntries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize handlers")
		return
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Config.HTTP.BindAddress, cfg.Config.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("db_path", cfg.Config.Database.Path).
			Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
