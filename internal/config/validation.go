package config

import (
	"errors"
	"fmt"
	"math"
)

func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Optimizer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("optimizer: %w", err))
	}

	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("grid: %w", err))
	}

	if err := c.Persistence.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("persistence: %w", err))
	}

	return errors.Join(errs...)
}

func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", s.Port))
	}

	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive"))
		}
		if s.RateLimit.Burst < 1 {
			errs = append(errs, fmt.Errorf("rate_limit.burst must be at least 1"))
		}
	}

	if s.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be non-negative"))
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) Validate() error {
	if a.Enabled {
		if a.User == "" {
			return fmt.Errorf("user cannot be empty when auth is enabled")
		}
		if a.Password == "" {
			return fmt.Errorf("password cannot be empty when auth is enabled")
		}
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", l.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", l.Format)
	}

	return nil
}

func (o *OptimizerConfig) Validate() error {
	var errs []error

	if !(o.TotalBudget > 0) || math.IsInf(o.TotalBudget, 0) {
		errs = append(errs, fmt.Errorf("total_budget must be positive, got %g", o.TotalBudget))
	}
	if o.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("max_iter must be at least 1, got %d", o.MaxIter))
	}
	if !(o.XAtol > 0) {
		errs = append(errs, fmt.Errorf("xatol must be positive, got %g", o.XAtol))
	}
	if o.TrackIterations < 1 {
		errs = append(errs, fmt.Errorf("track_iterations must be at least 1, got %d", o.TrackIterations))
	}

	return errors.Join(errs...)
}

func (g *GridConfig) Validate() error {
	var errs []error

	if !(g.MaxTime >= 0) || math.IsInf(g.MaxTime, 0) {
		errs = append(errs, fmt.Errorf("max_time must be non-negative, got %g", g.MaxTime))
	}
	if !(g.Step > 0) || math.IsInf(g.Step, 0) {
		errs = append(errs, fmt.Errorf("step must be positive, got %g", g.Step))
	}
	if g.MaxCells < 1 {
		errs = append(errs, fmt.Errorf("max_cells must be at least 1, got %d", g.MaxCells))
	}

	return errors.Join(errs...)
}

func (p *PersistenceConfig) Validate() error {
	switch p.Backend {
	case BackendFile:
		if p.DataDir == "" {
			return fmt.Errorf("data_dir cannot be empty")
		}
		if p.FlushIntervalSec < 1 {
			return fmt.Errorf("flush_interval_sec must be at least 1")
		}
	case BackendPostgres:
		if p.DatabaseURL == "" {
			return fmt.Errorf("database_url cannot be empty for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid backend: %s (valid: file, postgres)", p.Backend)
	}
	return nil
}
