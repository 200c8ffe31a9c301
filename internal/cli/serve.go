package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"folio/api/internal/app"
	"folio/api/internal/auth"
	"folio/api/internal/cache"
	"folio/api/internal/config"
	"folio/api/internal/export"
	"folio/api/internal/logging"
	"folio/api/internal/metrics"
	"folio/api/internal/preview"
	"folio/api/internal/revisions"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides API_ADDR")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, store.Migrations(cfg.MigrationsDir)); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	if err := os.MkdirAll(cfg.RevisionsDir, 0o755); err != nil {
		return fmt.Errorf("create revisions dir: %w", err)
	}

	guard, err := auth.NewGuard(cfg.AdminUser, cfg.AdminPasswordHash)
	if err != nil {
		return err
	}
	if !guard.Enabled() {
		logger.Warn("admin endpoints disabled, set FOLIO_ADMIN_PASSWORD_HASH to enable them")
	}

	dataStore := store.NewPostgresStore(db)
	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts, logger)

	var pageCache *cache.RedisCache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		pageCache, err = cache.NewRedisCache(cfg.RedisURL, cfg.RenderCacheTTL)
		if err != nil {
			logger.Warn("redis unavailable, rendering without cache", zap.Error(err))
		} else {
			defer pageCache.Close()
			logger.Info("using redis for rendered pages and link cards")
		}
	}

	m := metrics.New()
	service := app.New(cfg, logger, m, dataStore,
		app.WithCache(pageCache),
		app.WithRevisions(revisions.New(cfg.RevisionsDir)),
		app.WithSearch(searchService),
		app.WithExport(export.NewService(dataStore)),
		app.WithPreviewFetcher(preview.NewFetcher(cfg.PreviewTimeout, logger)),
	)
	service.Reindex()

	httpServer := app.NewHTTPServer(service, guard, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("folio api listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		return err
	}
	logger.Info("folio api stopped")
	return nil
}
