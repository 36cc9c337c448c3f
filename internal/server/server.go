package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/zakatease/internal/config"
	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/zakat"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/output"
	"github.com/iwvelando/zakatease/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// pricesCacheControl lets shared caches keep /api/prices for six hours and
// serve it stale for twelve more while revalidating.
const pricesCacheControl = "public, s-maxage=21600, stale-while-revalidate=43200"

// PriceSource provides reference prices for both metals.
type PriceSource interface {
	ReferencePrices(ctx context.Context) (prices.ReferencePrices, error)
}

// Options configures NewHandler.
type Options struct {
	MaxRequestSize int64
	RequestTimeout time.Duration
	Version        string
	// Prices backs /api/prices and automatic nisab prices. Nil disables both.
	Prices      PriceSource
	Resolver    zakat.Resolver
	Metrics     bool
	MetricsPath string
}

type handler struct {
	logger         *zap.Logger
	maxRequestSize int64
	version        string
	prices         PriceSource
	calculator     zakat.Calculator
	now            func() time.Time
}

// NewHandler constructs the HTTP handler that serves the price and
// calculation API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = constants.DefaultMaxRequestSizeBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultRequestTimeout
	}
	if strings.TrimSpace(opts.MetricsPath) == "" {
		opts.MetricsPath = "/metrics"
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:         logger,
		maxRequestSize: opts.MaxRequestSize,
		version:        trimmedVersion,
		prices:         opts.Prices,
		calculator:     zakat.NewCalculator(opts.Resolver),
		now:            time.Now,
	}
	return h.routes(opts)
}

func (h *handler) routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/health", h.handleHealth)
	r.Get("/api/version", h.handleVersion)
	r.Get("/api/prices", h.handlePrices)
	r.Post("/api/calculate", h.handleCalculate)
	r.Post("/api/report", h.handleReport)

	if opts.Metrics {
		r.Handle(opts.MetricsPath, promhttp.Handler())
	}
	return r
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Debug("request served",
			zap.String("op", "server.requestLogger"),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type pricesResponse struct {
	GoldPerLocalUnit   map[string]int64 `json:"goldPerLocalUnit"`
	SilverPerLocalUnit map[string]int64 `json:"silverPerLocalUnit"`
	Date               string           `json:"date"`
}

func (h *handler) handlePrices(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePrices"
	if h.prices == nil {
		h.respondErrorWithOp(w, http.StatusBadGateway, "reference prices are not configured", op)
		return
	}

	reference, err := h.prices.ReferencePrices(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch reference prices: %v", err), op)
		return
	}

	w.Header().Set("Cache-Control", pricesCacheControl)
	h.writeJSON(w, http.StatusOK, pricesResponse{
		GoldPerLocalUnit:   reference.Gold.PerTola,
		SilverPerLocalUnit: reference.Silver.PerTola,
		Date:               reference.Date(),
	})
}

type calculateResponse struct {
	Currency    string                `json:"currency"`
	Date        string                `json:"date"`
	Status      zakat.Status          `json:"status"`
	Nisab       zakat.ThresholdConfig `json:"nisab"`
	Calculation zakat.Calculation     `json:"calculation"`
	Warnings    []string              `json:"warnings,omitempty"`
	Duration    string                `json:"duration"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	start := time.Now()

	doc, warnings, ok := h.prepareDocument(w, r, op)
	if !ok {
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("zakat computed",
		zap.String("op", op),
		zap.String("status", string(doc.Calculation.Status())),
		zap.String("currency", doc.Currency),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, calculateResponse{
		Currency:    doc.Currency,
		Date:        doc.Date,
		Status:      doc.Calculation.Status(),
		Nisab:       doc.Nisab,
		Calculation: doc.Calculation,
		Warnings:    warnings,
		Duration:    elapsed.String(),
	})
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	outputFormat := r.URL.Query().Get("format")
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if outputFormat == constants.OutputFormatCSV {
		contentType = "text/csv; charset=utf-8"
	}

	doc, _, ok := h.prepareDocument(w, r, op)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := output.Write(&buf, outputFormat, doc); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render report: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="zakat-report-%s.%s"`, doc.Date, reportExtension(outputFormat)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

// prepareDocument decodes a ledger from the JSON request body, fills missing
// nisab prices when asked to, and computes the result. It writes the error
// response itself and reports false when the request cannot be served.
func (h *handler) prepareDocument(w http.ResponseWriter, r *http.Request, op string) (output.Document, []string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
			return output.Document{}, nil, false
		}
		if errors.Is(err, io.EOF) {
			payload = make(map[string]interface{})
		} else {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode ledger: %v", err), op)
			return output.Document{}, nil, false
		}
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configBytes, err := yaml.Marshal(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode ledger: %v", err), op)
		return output.Document{}, nil, false
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return output.Document{}, nil, false
	}

	warnings := cfg.ValidateConfiguration()
	date := h.now().UTC().Format(constants.DateLayout)

	if cfg.FetchPrices || coerceBool(r.URL.Query().Get("autoPrices")) {
		if h.prices == nil {
			warnings = append(warnings, "automatic nisab prices are not available on this server")
		} else if reference, err := h.prices.ReferencePrices(r.Context()); err != nil {
			h.logger.Warn("reference prices unavailable, continuing with provided prices",
				zap.String("op", op),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("reference prices unavailable: %v", err))
		} else {
			cfg.ApplyReferencePrices(reference)
			if reference.Date() != "" {
				date = reference.Date()
			}
		}
	}

	calculator := h.calculator
	if strings.TrimSpace(cfg.Nisab.TieBreak) != "" {
		if resolver, err := cfg.Resolver(); err == nil {
			calculator = zakat.NewCalculator(resolver)
		}
	}

	assets, deductions, _ := cfg.Ledgers()
	nisab := cfg.ThresholdConfig()

	return output.Document{
		Currency:        cfg.CurrencyCode(),
		Date:            date,
		Assets:          assets,
		Deductions:      deductions,
		ForeignCurrency: cfg.ForeignCurrency,
		Nisab:           nisab,
		Calculation:     calculator.Compute(assets, deductions, nisab),
	}, warnings, true
}

func reportExtension(outputFormat string) string {
	if outputFormat == constants.OutputFormatCSV {
		return "csv"
	}
	return "txt"
}

func coerceBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
