package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/iwvelando/zakatease/internal/pricestore"
	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/server"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the price and calculation API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", constants.DefaultServerConfigFile, "path to server configuration file")
	return cmd
}

func runServe(ctx context.Context, configPath, logLevelOverride string) error {
	serverConf, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(serverConf.Logging, logLevelOverride)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, closeStore := openPriceStore(ctx, serverConf.Prices.StorePath, logger)
	defer closeStore()

	svc := prices.NewService(serverConf.PriceServiceConfig(), nil, store, logger)
	if store != nil {
		if err := svc.Warm(ctx); err != nil {
			logger.Warn("failed to warm price cache", zap.String("op", "main.runServe"), zap.Error(err))
		}
	}

	resolver, err := serverConf.Resolver()
	if err != nil {
		return err
	}

	handler := server.NewHandler(logger, server.Options{
		MaxRequestSize: serverConf.RequestSizeBytes(),
		RequestTimeout: serverConf.RequestTimeout,
		Version:        version,
		Prices:         svc,
		Resolver:       resolver,
		Metrics:        serverConf.Metrics.Enabled,
		MetricsPath:    serverConf.Metrics.Path,
	})

	srv := &http.Server{
		Addr:              serverConf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main.runServe"),
			zap.String("address", serverConf.Address),
			zap.Bool("metrics", serverConf.Metrics.Enabled),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server", zap.String("op", "main.runServe"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	svc.Wait()
	return nil
}

// openPriceStore opens the snapshot store when a path is configured. A store
// that fails to open is logged and skipped; the returned close func is
// always safe to call.
func openPriceStore(ctx context.Context, path string, logger *zap.Logger) (prices.SnapshotStore, func()) {
	if path == "" {
		return nil, func() {}
	}

	store, err := pricestore.Open(ctx, path)
	if err != nil {
		logger.Warn("price snapshot store unavailable",
			zap.String("op", "main.openPriceStore"),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, func() {}
	}

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close price snapshot store",
				zap.String("op", "main.openPriceStore"),
				zap.Error(err),
			)
		}
	}
}
