package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"usagecli/internal/config"
	"usagecli/internal/identity"
	"usagecli/internal/infrastructure"
	transport "usagecli/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	store, err := identity.OpenStore(cfg.Identity.StoreFile, logger)
	if err != nil {
		return fmt.Errorf("failed to open identity store: %w", err)
	}

	// The directory client is deployment-specific; the server itself runs
	// offline and serves whatever the cache already holds.
	cache := identity.NewCache(identity.OfflineDirectory{}, store, cfg.Identity, logger)

	router := transport.NewRouter(
		transport.NewArtifactDataService(cfg.Output.DataDir),
		cache,
		logger,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("Data API listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
