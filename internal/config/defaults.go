package config

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 100,
				Burst:             200,
			},
			MaxBodyBytes: 1 << 20,
		},
		Auth: AuthConfig{
			Enabled:  false,
			User:     "",
			Password: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Estimator: EstimatorConfig{
			Definition: "",
			Sharpe:     false,
		},
		Optimizer: OptimizerConfig{
			TotalBudget:     120,
			MaxIter:         500,
			XAtol:           1e-5,
			TrackIterations: 30,
		},
		Grid: GridConfig{
			MaxTime:  120,
			Step:     10,
			MaxCells: 1_000_000,
		},
		Persistence: PersistenceConfig{
			Backend:          BackendFile,
			DataDir:          ".readalloc",
			FlushIntervalSec: 30,
		},
		Notify: NotifyConfig{
			Bell:          false,
			SubjectPrefix: "readalloc",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
