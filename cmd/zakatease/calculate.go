package main

import (
	"context"
	"io"
	"time"

	"github.com/iwvelando/zakatease/internal/config"
	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/server"
	"github.com/iwvelando/zakatease/internal/zakat"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/output"
	"github.com/iwvelando/zakatease/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type calculateOptions struct {
	Input        string
	OutputFormat string
	FetchPrices  bool
	ServerConfig string
	LogLevel     string
	now          func() time.Time
}

func calculateCmd() *cobra.Command {
	opts := calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute zakat for a ledger file and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.LogLevel = logLevel
			return runCalculate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", constants.DefaultConfigFile, "path to the ledger file")
	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", "", "type of output override: pretty, csv")
	cmd.Flags().BoolVar(&opts.FetchPrices, "fetch-prices", false, "fill missing nisab prices from the live price sources")
	cmd.Flags().StringVar(&opts.ServerConfig, "config", constants.DefaultServerConfigFile, "server config holding the price source settings")
	return cmd
}

func runCalculate(ctx context.Context, w io.Writer, opts calculateOptions) error {
	conf, err := config.LoadConfiguration(opts.Input)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(conf.Logging, opts.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if opts.OutputFormat != "" {
		outputFormat = opts.OutputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.runCalculate"),
		)
	}

	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	date := now().Format(constants.DateLayout)

	if opts.FetchPrices || conf.FetchPrices {
		serverConf, err := server.LoadConfig(opts.ServerConfig)
		if err != nil {
			return err
		}
		svc := prices.NewService(serverConf.PriceServiceConfig(), nil, nil, logger)
		reference, err := svc.ReferencePrices(ctx)
		if err != nil {
			logger.Warn("reference prices unavailable, continuing with configured prices",
				zap.String("op", "main.runCalculate"),
				zap.Error(err),
			)
		} else {
			conf.ApplyReferencePrices(reference)
			date = reference.Date()
		}
	}

	// An invalid tie break was already reported and falls back to silver.
	resolver, _ := conf.Resolver()

	assets, deductions, _ := conf.Ledgers()
	nisab := conf.ThresholdConfig()
	calc := zakat.NewCalculator(resolver).Compute(assets, deductions, nisab)

	logger.Info("zakat computed",
		zap.String("op", "main.runCalculate"),
		zap.String("status", string(calc.Status())),
		zap.String("activeStandard", string(calc.ActiveStandard)),
		zap.Float64("payableAmount", calc.PayableAmount),
	)

	return output.Write(w, outputFormat, output.Document{
		Currency:        conf.CurrencyCode(),
		Date:            date,
		Assets:          assets,
		Deductions:      deductions,
		ForeignCurrency: conf.ForeignCurrency,
		Nisab:           nisab,
		Calculation:     calc,
	})
}
