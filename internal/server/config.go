package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/zakatease/internal/config"
	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/zakat"
	"github.com/iwvelando/zakatease/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address          string               `yaml:"address"`
	MaxRequestSize   string               `yaml:"maxRequestSize"`
	RequestTimeout   time.Duration        `yaml:"requestTimeout"`
	Metrics          MetricsConfig        `yaml:"metrics"`
	Prices           PricesConfig         `yaml:"prices"`
	Nisab            NisabConfig          `yaml:"nisab"`
	Logging          config.LoggingConfig `yaml:"logging"`
	requestSizeBytes int64
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// PricesConfig locates the reference price sources and tunes the cache.
type PricesConfig struct {
	PrimaryURL     string        `yaml:"primaryURL"`
	FallbackURL    string        `yaml:"fallbackURL"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout"`
	TTL            time.Duration `yaml:"ttl"`
	MaxStale       time.Duration `yaml:"maxStale"`
	StorePath      string        `yaml:"storePath"` // optional SQLite snapshot file
}

// NisabConfig holds server-wide threshold settings.
type NisabConfig struct {
	TieBreak string `yaml:"tieBreak"`
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	defaults := prices.DefaultConfig()
	cfg := &Config{
		Address:        constants.DefaultServerAddress,
		MaxRequestSize: fmt.Sprintf("%d", constants.DefaultMaxRequestSizeBytes),
		RequestTimeout: constants.DefaultRequestTimeout,
		Metrics:        MetricsConfig{Path: "/metrics"},
		Prices: PricesConfig{
			PrimaryURL:     defaults.PrimaryURL,
			FallbackURL:    defaults.FallbackURL,
			AttemptTimeout: defaults.AttemptTimeout,
			TTL:            defaults.TTL,
			MaxStale:       defaults.MaxStale,
		},
		Logging:          config.LoggingConfig{},
		requestSizeBytes: constants.DefaultMaxRequestSizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequestSizeBytes returns the configured request body limit in bytes.
func (c *Config) RequestSizeBytes() int64 {
	return c.requestSizeBytes
}

// SetRequestSizeBytes overrides the configured request body limit.
func (c *Config) SetRequestSizeBytes(size int64) {
	if size > 0 {
		c.requestSizeBytes = size
		c.MaxRequestSize = fmt.Sprintf("%d", size)
	}
}

// PriceServiceConfig returns the price service settings.
func (c *Config) PriceServiceConfig() prices.Config {
	return prices.Config{
		PrimaryURL:     c.Prices.PrimaryURL,
		FallbackURL:    c.Prices.FallbackURL,
		AttemptTimeout: c.Prices.AttemptTimeout,
		TTL:            c.Prices.TTL,
		MaxStale:       c.Prices.MaxStale,
	}
}

// Resolver returns the threshold resolver with the configured tie break.
func (c *Config) Resolver() (zakat.Resolver, error) {
	resolver := zakat.DefaultResolver()
	standard, err := zakat.ParseStandard(c.Nisab.TieBreak)
	if err != nil {
		return resolver, err
	}
	if standard != zakat.StandardNone {
		resolver.TieBreak = standard
	}
	return resolver, nil
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = constants.DefaultRequestTimeout
	}
	if strings.TrimSpace(c.Metrics.Path) == "" {
		c.Metrics.Path = "/metrics"
	}
	if _, err := c.Resolver(); err != nil {
		return fmt.Errorf("invalid nisab tie break: %w", err)
	}

	sizeStr := strings.TrimSpace(c.MaxRequestSize)
	if sizeStr == "" {
		c.requestSizeBytes = constants.DefaultMaxRequestSizeBytes
		c.MaxRequestSize = fmt.Sprintf("%d", constants.DefaultMaxRequestSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxRequestSizeBytes
	}
	c.requestSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxRequestSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
