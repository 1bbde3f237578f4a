package config

import (
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/api"
)

// Default values for optional configuration fields.
const (
	DefaultUpstreamTimeout   = 20 * time.Second
	DefaultRealtimeInterval  = 15 * time.Second
	DefaultFetchTimeout      = 10 * time.Second
	DefaultSafetyCeiling     = 4 * time.Hour
	DefaultBackoffBase       = 30 * time.Second
	DefaultBackoffCap        = 30 * time.Minute
	DefaultRateLimitCooldown = 5 * time.Minute
	DefaultDegradedThreshold = 3
	DefaultListen            = ":8480"
	DefaultLogoDir           = "artifacts/logos"
	DefaultHistoryDir        = "artifacts/history"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultBatchSize         = 500
	DefaultFlushInterval     = 1 * time.Second
	DefaultBufferSize        = 10000
)

func (c *ServiceConfig) applyDefaults() {
	// Upstream defaults
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = api.DefaultBaseURL
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}

	// Scheduler defaults
	if c.Scheduler.RealtimeInterval == 0 {
		c.Scheduler.RealtimeInterval = DefaultRealtimeInterval
	}
	if c.Scheduler.FetchTimeout == 0 {
		c.Scheduler.FetchTimeout = DefaultFetchTimeout
	}
	if c.Scheduler.SafetyCeiling == 0 {
		c.Scheduler.SafetyCeiling = DefaultSafetyCeiling
	}
	if c.Scheduler.BackoffBase == 0 {
		c.Scheduler.BackoffBase = DefaultBackoffBase
	}
	if c.Scheduler.BackoffCap == 0 {
		c.Scheduler.BackoffCap = DefaultBackoffCap
	}
	if c.Scheduler.RateLimitCooldown == 0 {
		c.Scheduler.RateLimitCooldown = DefaultRateLimitCooldown
	}
	if c.Scheduler.DegradedThreshold == 0 {
		c.Scheduler.DegradedThreshold = DefaultDegradedThreshold
	}

	// Server defaults
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	// Artifact defaults
	if c.Artifacts.LogoDir == "" {
		c.Artifacts.LogoDir = DefaultLogoDir
	}
	if c.Artifacts.HistoryDir == "" {
		c.Artifacts.HistoryDir = DefaultHistoryDir
	}

	// Database defaults
	if c.Database != nil {
		applyDBDefaults(c.Database)
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultBufferSize
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
