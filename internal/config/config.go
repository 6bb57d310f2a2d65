package config

import "time"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Estimator   EstimatorConfig   `yaml:"estimator"`
	Optimizer   OptimizerConfig   `yaml:"optimizer"`
	Grid        GridConfig        `yaml:"grid"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Notify      NotifyConfig      `yaml:"notify"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type ServerConfig struct {
	Host         string          `yaml:"host"`
	Port         int             `yaml:"port"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	MaxBodyBytes int64           `yaml:"max_body_bytes"`

	// PIDFile is written by serve and read by stop and reload.
	PIDFile string `yaml:"pid_file"`
}

// RateLimitConfig limits API requests with a token bucket.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	// PerIP keeps a separate bucket for every client address.
	PerIP bool `yaml:"per_ip"`
}

type AuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EstimatorConfig selects the estimator definition.
type EstimatorConfig struct {
	// Definition is the path of an estimator definition file. When empty,
	// the definition saved in the data directory is used, then the built-in
	// demo estimator.
	Definition string `yaml:"definition"`

	// Sharpe divides predictions by their standard deviation when the
	// estimator provides one.
	Sharpe bool `yaml:"sharpe"`
}

type OptimizerConfig struct {
	TotalBudget     float64 `yaml:"total_budget"`
	MaxIter         int     `yaml:"max_iter"`
	XAtol           float64 `yaml:"xatol"`
	TrackIterations int     `yaml:"track_iterations"`
}

type GridConfig struct {
	MaxTime  float64 `yaml:"max_time"`
	Step     float64 `yaml:"step"`
	MaxCells int     `yaml:"max_cells"`
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type PersistenceConfig struct {
	// Backend is file or postgres.
	Backend          string `yaml:"backend"`
	DataDir          string `yaml:"data_dir"`
	FlushIntervalSec int    `yaml:"flush_interval_sec"`
	DatabaseURL      string `yaml:"database_url"`
}

// NotifyConfig controls completion notifications.
type NotifyConfig struct {
	// Bell rings the terminal bell when a CLI computation finishes.
	Bell          bool   `yaml:"bell"`
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Persistence.FlushIntervalSec) * time.Second
}
