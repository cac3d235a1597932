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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadforge/prospectdb/internal/transport/chi"
	"github.com/leadforge/prospectdb/internal/usecase/importer"
	"github.com/leadforge/prospectdb/internal/usecase/prospect"
	"github.com/leadforge/prospectdb/internal/usecase/report"
	"github.com/leadforge/prospectdb/internal/usecase/seed"
	"github.com/leadforge/prospectdb/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	s, err := newSetup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("Starting prospectdb API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", s.cfg.HTTP.Port),
		zap.String("db_driver", s.cfg.Database.Driver),
	)

	if s.cfg.Seed.Fixture != "" {
		if err := seedFromFixture(ctx, s); err != nil {
			return err
		}
	}

	server := chi.NewServer(
		prospect.New(s.store, s.cfg.Seed.Collections),
		importer.New(s.store, s.cfg.Limits.MaxImportRows),
		report.New(s.store),
		s.store,
		s.logger,
	)

	addr := fmt.Sprintf(":%d", s.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(s.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		s.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

func seedFromFixture(ctx context.Context, s *setup) error {
	fixture, err := seed.Load(s.cfg.Seed.Fixture)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, s.store, fixture)
	if err != nil {
		return err
	}
	s.logger.Info("Startup seeding done",
		zap.Strings("seeded", res.Seeded),
		zap.Strings("skipped", res.Skipped),
	)
	return nil
}
