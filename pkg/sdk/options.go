package partnerdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	keyPrefix       string
	fallbackEnabled bool
	fallbackPath    string
	fetchTimeout    time.Duration
	refreshInterval time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{fallbackEnabled: true}
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the keyspace prefix. Default: "partnerdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithFallbackFile replaces the bundled fallback table with a YAML file.
func WithFallbackFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallbackEnabled = true
		c.fallbackPath = path
	})
}

// WithoutFallback disables fallback substitution.
// A failed fetch then serves an empty directory.
func WithoutFallback() Option {
	return optionFunc(func(c *clientConfig) {
		c.fallbackEnabled = false
		c.fallbackPath = ""
	})
}

// WithFetchTimeout bounds a single database fetch. Default: 5s.
func WithFetchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchTimeout = d
	})
}

// WithRefreshInterval starts a background refresh loop, stopped by Close.
// Default: 0 (refresh only on New, Refresh and writes).
func WithRefreshInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.refreshInterval = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
