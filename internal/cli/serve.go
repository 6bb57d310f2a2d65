package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the readalloc API server",
	Long: `Start the readalloc API server in foreground mode.

SIGHUP reloads the configuration file; SIGINT and SIGTERM shut the server
down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	host string
	port int
)

const shutdownTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if IsRemote() {
		return errors.New("serve runs locally; drop --server")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s, err := openSession(ctx, sessionOptions{longRunning: true, registerer: registry})
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	log := s.log

	info := s.engine.Info()
	log.Info("readalloc starting",
		"version", Version,
		"config", cfgFile,
		"estimator", info.Kind,
		"source", info.Source,
	)

	if cfg.Server.PIDFile != "" {
		if err := writePIDFile(cfg.Server.PIDFile); err != nil {
			log.Warn("failed to write PID file", "error", err)
		} else {
			defer os.Remove(cfg.Server.PIDFile)
		}
	}

	srv := server.New(cfg, s.engine, registry, log, Version)

	sighupCh := make(chan os.Signal, 1)
	sigCh := make(chan os.Signal, 1)
	shutdownDone := make(chan struct{})

	signal.Notify(sighupCh, syscall.SIGHUP)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-sighupCh:
				log.Info("SIGHUP received, reloading configuration")

				newCfg := config.LoadOrDefault(cfgFile)
				if err := newCfg.Validate(); err != nil {
					log.Error("invalid configuration, reload aborted", "error", err)
					continue
				}

				srv.ReloadConfig(newCfg)
			case <-shutdownDone:
				return
			}
		}
	}()

	go func() {
		select {
		case <-sigCh:
			log.Info("shutdown signal received")
		case <-ctx.Done():
		}

		signal.Stop(sighupCh)
		signal.Stop(sigCh)
		close(shutdownDone)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	log.Info("readalloc ready", "addr", srv.Addr())

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("readalloc stopped")
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}
