// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment on top.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite file holding the purchase ledger and the
	// streak cache. ":memory:" is accepted for tests.
	DBPath string `koanf:"db_path"`

	// TablesPath optionally overrides the embedded score tables asset.
	TablesPath string `koanf:"tables_path"`

	// IngestQueueSize bounds the in-memory ingestion queue.
	IngestQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the ingestion idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxAlternatives caps GET /products/{id}/alternatives?limit.
	MaxAlternatives int `koanf:"max_alternatives"`

	// MaxGreenestLimit caps GET /greenest?limit.
	MaxGreenestLimit int `koanf:"max_greenest_limit"`

	// InsightEndpoint is the generative insight collaborator URL.
	// Empty disables remote calls; the fixed fallback payload is served.
	InsightEndpoint string `koanf:"insight_endpoint"`

	// InsightModel names the generative model to request.
	InsightModel string `koanf:"insight_model"`

	// InsightTimeoutMS bounds a single insight call.
	InsightTimeoutMS int `koanf:"insight_timeout_ms"`

	// PredictorEndpoint is the external CF classifier URL. Empty
	// disables remote calls; the deterministic band is served instead.
	PredictorEndpoint string `koanf:"predictor_endpoint"`

	// PredictorTimeoutMS bounds a single predictor call.
	PredictorTimeoutMS int `koanf:"predictor_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DBPath:             "ecotrace.db",
		IngestQueueSize:    100_000,
		WorkerCount:        runtime.NumCPU() * 2,
		DedupeSize:         500_000,
		MaxAlternatives:    25,
		MaxGreenestLimit:   100,
		InsightModel:       "gemini-1.5-flash",
		InsightTimeoutMS:   8_000,
		PredictorTimeoutMS: 2_000,
	}
}
