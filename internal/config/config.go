package config

import (
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// ServiceConfig is the root configuration for the quoted daemon.
type ServiceConfig struct {
	Upstream     UpstreamConfig     `yaml:"upstream"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Server       ServerConfig       `yaml:"server"`
	Artifacts    ArtifactsConfig    `yaml:"artifacts"`
	Database     *DBConfig          `yaml:"database"` // optional; nil disables the recorder
	Recorder     RecorderConfig     `yaml:"recorder"`
	CalendarFile string             `yaml:"calendar_file"` // empty: built-in session table
	Instruments  []InstrumentConfig `yaml:"instruments"`
}

// UpstreamConfig holds quote API settings.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SchedulerConfig holds polling cadence tuning.
type SchedulerConfig struct {
	RealtimeInterval  time.Duration `yaml:"realtime_interval"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	SafetyCeiling     time.Duration `yaml:"safety_ceiling"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffCap        time.Duration `yaml:"backoff_cap"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	DegradedThreshold int           `yaml:"degraded_threshold"`
}

// ServerConfig holds the subscriber endpoint settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// ArtifactsConfig holds on-disk cache directories.
type ArtifactsConfig struct {
	LogoDir    string `yaml:"logo_dir"`
	HistoryDir string `yaml:"history_dir"`
}

// DBConfig holds a single Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RecorderConfig holds batch writer settings, used only when a database
// block is present.
type RecorderConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// InstrumentConfig is one tracked instrument entry.
type InstrumentConfig struct {
	ISIN            string `yaml:"isin"`
	Exchange        string `yaml:"exchange"`
	Currency        string `yaml:"currency"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// Key returns the instrument's identity triple.
func (i InstrumentConfig) Key() model.InstrumentKey {
	return model.InstrumentKey{ISIN: i.ISIN, Exchange: i.Exchange, Currency: i.Currency}
}

// Interval returns the configured fallback poll interval.
func (i InstrumentConfig) Interval() time.Duration {
	return time.Duration(i.IntervalSeconds) * time.Second
}
