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
	"golang.org/x/sync/errgroup"

	web "backoffice/internal/adapters/http"
	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/adapters/storage"
	auditStore "backoffice/internal/adapters/storage/audit"
	operatorStore "backoffice/internal/adapters/storage/operator"
	sessionStore "backoffice/internal/adapters/storage/session"
	"backoffice/internal/application/listview"
	"backoffice/internal/application/workspace"
	"backoffice/internal/config"
	"backoffice/internal/logging"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		return err
	}
	timed := storage.NewTimedDB(db, logger, cfg.GetSlowQuery())

	stores := web.Stores{
		OperatorStore: operatorStore.NewSQLiteStore(timed),
		SessionStore:  sessionStore.NewSQLiteStore(timed),
		AuditStore:    auditStore.NewSQLiteStore(timed),
	}
	if err := syncOperators(ctx, stores.OperatorStore, stores.SessionStore, cfg.OperatorList(), logger); err != nil {
		return err
	}

	client, err := marketplace.New(marketplace.Config{
		BaseURL:   cfg.Marketplace.BaseURL,
		Timeout:   cfg.GetMarketplaceTimeout(),
		RateLimit: cfg.Marketplace.RateLimit,
		Burst:     cfg.Marketplace.Burst,
		Headers:   cfg.Marketplace.Headers,
		Tokens:    tokenSource(cfg, logger),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// Validate already rejected unknown policies.
	policy, _ := listview.ParseSelectionPolicy(cfg.Console.SelectionPolicy)
	workspaces := workspace.NewRegistry(func() *workspace.Workspace {
		return workspace.New(client, workspace.Config{
			PageSize:    cfg.Console.PageSize,
			Selection:   policy,
			SearchDelay: cfg.GetSearchDebounce(),
			Logger:      logger,
		})
	})

	key, err := web.CSRFKey(cfg.Server.CSRFKey, cfg.IsProduction(), logger)
	if err != nil {
		return err
	}
	srv, err := web.NewServer(stores, client, workspaces, web.Config{
		CSRFKey:    key,
		Secure:     cfg.IsProduction(),
		SessionTTL: cfg.GetSessionTTL(),
		RateLimit:  cfg.Server.RateLimit,
		RateBurst:  cfg.Server.RateBurst,
	}, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server_starting",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("env", cfg.Server.Env),
		zap.String("marketplace", cfg.Marketplace.BaseURL),
		zap.Int("schema", storage.LatestSchemaVersion()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server_stopping")
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		runSweeper(gctx, sweepInterval, sweeper{
			Sessions:   stores.SessionStore,
			Workspaces: workspaces,
			Visitors:   srv,
			IdleTTL:    cfg.GetSessionTTL(),
			Logger:     logger,
		})
		return nil
	})
	return g.Wait()
}
