package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/logger"
	"github.com/haskel/readalloc/internal/metrics"
	"github.com/haskel/readalloc/internal/notify"
	"github.com/haskel/readalloc/internal/storage"
)

// loadConfig reads --config, or the defaults when it is not set. Unlike the
// server reload path a named file that cannot be read is an error.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

// newLogger logs at debug level with --verbose. One-shot commands only log
// warnings otherwise; long-running ones use the configured level.
func newLogger(cfg *config.Config, longRunning bool) *slog.Logger {
	level := cfg.Logging.Level
	switch {
	case verbose:
		level = "debug"
	case !longRunning:
		level = "warn"
	}
	return logger.New(level, cfg.Logging.Format)
}

// session is everything a command needs to run computations locally.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	engine  *engine.Engine
	models  *storage.ModelStorage
	closers []func()
}

type sessionOptions struct {
	longRunning bool
	registerer  prometheus.Registerer
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, opts.longRunning)

	s := &session{
		cfg:    cfg,
		log:    log,
		models: storage.NewModelStorage(cfg.Persistence.DataDir, log),
	}

	notifier, err := s.buildNotifier()
	if err != nil {
		s.Close()
		return nil, err
	}

	def, source, err := engine.ResolveDefinition(modelFile, cfg.Estimator, s.models)
	if err != nil {
		s.Close()
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Persistence, log)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open run store: %w", err)
	}

	var m *metrics.Metrics
	if opts.registerer != nil && cfg.Metrics.Enabled {
		m = metrics.New(opts.registerer)
	}

	eng, err := engine.NewFromDefinition(def, source, engine.Options{
		Store:     store,
		Notifier:  notifier,
		Metrics:   m,
		Logger:    log,
		Estimator: cfg.Estimator,
		Optimizer: cfg.Optimizer,
		Grid:      cfg.Grid,
	})
	if err != nil {
		store.Close()
		s.Close()
		return nil, err
	}
	s.engine = eng
	return s, nil
}

func (s *session) buildNotifier() (notify.Notifier, error) {
	n := notify.Multi{notify.NewLogger(s.log)}

	if s.cfg.Notify.Bell {
		n = append(n, notify.NewBell(os.Stderr))
	}

	if s.cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(s.cfg.Notify.NATSURL, s.log)
		if err != nil {
			return nil, err
		}
		bus := notify.NewNATS(pub, s.cfg.Notify.SubjectPrefix)
		s.closers = append(s.closers, bus.Close)
		n = append(n, bus)
	}

	return n, nil
}

// Close releases the engine and notifiers in reverse order of creation.
func (s *session) Close() {
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.log.Error("failed to close run store", "error", err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a number", name, s)
	}
	return v, nil
}

// boolFlag returns the flag value when it was set and nil otherwise.
func boolFlag(cmd *cobra.Command, name string, v bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
