package main

import (
	"context"
	"fmt"
	"io"

	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/server"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/format"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func pricesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Fetch the current gold and silver price per tola",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrices(cmd.Context(), cmd.OutOrStdout(), configPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", constants.DefaultServerConfigFile, "path to server configuration file")
	return cmd
}

func runPrices(ctx context.Context, w io.Writer, configPath, logLevelOverride string) error {
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
			logger.Warn("failed to warm price cache", zap.String("op", "main.runPrices"), zap.Error(err))
		}
	}

	reference, err := svc.ReferencePrices(ctx)
	if err != nil {
		return err
	}
	svc.Wait()

	return writePrices(w, reference)
}

func writePrices(w io.Writer, reference prices.ReferencePrices) error {
	if _, err := fmt.Fprintf(w, "Prices per tola as of %s\n", reference.Date()); err != nil {
		return err
	}
	for _, code := range constants.SupportedCurrencies {
		gold, silver := reference.PricesFor(code)
		if gold == 0 && silver == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-5s gold %-16s silver %s\n", code,
			priceOrDash(gold, code), priceOrDash(silver, code)); err != nil {
			return err
		}
	}
	return nil
}

func priceOrDash(price int64, code string) string {
	if price <= 0 {
		return "-"
	}
	return format.Currency(float64(price), code)
}
