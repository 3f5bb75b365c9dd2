package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkwell-dev/inkwell/internal/client"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/logger"
	"github.com/inkwell-dev/inkwell/internal/session"
	"github.com/inkwell-dev/inkwell/internal/web"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	tokens, err := session.OpenTokenStore(cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open token store")
	}
	if c, ok := tokens.(io.Closer); ok {
		defer c.Close()
	}

	store := session.New(tokens, session.WithLogger(log))
	api := client.New(cfg.API.URL, store, cfg.API.Timeout)

	srv, err := web.New(cfg, store, api, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create web UI")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Str("api", cfg.API.URL).Msg("Starting Inkwell web UI...")

	// Session initialization runs in the background; this blocks until shutdown
	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Web UI failed")
	}
}
