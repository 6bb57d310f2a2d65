package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haskel/readalloc/internal/config"
)

const defaultFlushInterval = 30 * time.Second

// Open creates the run store selected by cfg. A file store is loaded and its
// flush loop started; closing the store stops it.
func Open(ctx context.Context, cfg config.PersistenceConfig, logger *slog.Logger) (RunStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		interval := time.Duration(cfg.FlushIntervalSec) * time.Second
		if interval <= 0 {
			interval = defaultFlushInterval
		}
		fs := NewFileStore(cfg.DataDir, interval, logger)
		if err := fs.Load(); err != nil {
			return nil, fmt.Errorf("load run history: %w", err)
		}
		fs.Start(ctx)
		logger.Debug("file run store started", "flush_interval", interval, "runs", fs.RunCount())
		return fs, nil

	case config.BackendPostgres:
		ps, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres run store")
		return ps, nil

	default:
		return nil, fmt.Errorf("unknown persistence backend: %s", cfg.Backend)
	}
}
