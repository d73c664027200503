package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/signworks/internal/backend"
	"github.com/Simplici0/signworks/internal/config"
	"github.com/Simplici0/signworks/internal/logging"
	"github.com/Simplici0/signworks/internal/quote"
	"github.com/Simplici0/signworks/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger := logging.Must(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Output:      "stderr",
		Development: cfg.IsDev(),
	})
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn("configuration", zap.String("warning", w))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.IsDev() {
		if err := prepareDev(ctx, b, logger); err != nil {
			return err
		}
	}

	srv := newServer(quote.NewService(b.Store, logger), logger, cfg.DefaultPricingSet)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", httpServer.Addr),
			zap.String("backend", cfg.StoreBackend),
			zap.String("env", cfg.Env),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// prepareDev migrates the schema and installs the bundled rate cards so a fresh checkout
// can serve requests immediately.
func prepareDev(ctx context.Context, b *backend.Backend, logger *zap.Logger) error {
	applied, err := b.Migrate(ctx)
	if err != nil {
		return err
	}
	stats, err := seed.Run(ctx, b.Store)
	if err != nil {
		return fmt.Errorf("failed to seed rate cards: %w", err)
	}
	logger.Info("dev database ready",
		zap.String("backend", b.Kind),
		zap.Int("migrations", applied),
		zap.Int("seed_inserts", stats.Inserts),
		zap.Int("seed_updates", stats.Updates),
	)
	return nil
}
