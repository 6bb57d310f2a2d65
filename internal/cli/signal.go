package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/config"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running readalloc server",
	Long:  `Stop the readalloc server by sending SIGTERM to the process in the PID file.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalServer(cmd, syscall.SIGTERM, "stopped", "Sent SIGTERM to process %d\n")
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the running server's configuration",
	Long:  `Ask the readalloc server to reload its configuration by sending SIGHUP.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalServer(cmd, syscall.SIGHUP, "reload_requested", "Sent SIGHUP to process %d (configuration reload requested)\n")
	},
}

var pidFile string

func init() {
	stopCmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")
	reloadCmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")
	rootCmd.AddCommand(stopCmd, reloadCmd)
}

// readPID returns the process id stored at --pid-file or the configured path.
func readPID() (int, error) {
	pidPath := pidFile
	if pidPath == "" {
		cfg := config.LoadOrDefault(cfgFile)
		pidPath = cfg.Server.PIDFile
	}

	if pidPath == "" {
		return 0, fmt.Errorf("no PID file specified (use --pid-file or configure server.pid_file)")
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("PID file not found: %s (server may not be running)", pidPath)
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file: %s", pidStr)
	}
	return pid, nil
}

func signalServer(cmd *cobra.Command, sig syscall.Signal, status, message string) error {
	pid, err := readPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %d", pid)
	}

	if err := process.Signal(sig); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, map[string]any{"status": status, "pid": pid})
	}
	fmt.Fprintf(out, message, pid)
	return nil
}
