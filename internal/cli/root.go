package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	modelFile string
	serverURL string
	jsonOut   bool
	verbose   bool
	user      string
	password  string

	// Version info (set from main)
	Version = "0.1.0"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "readalloc",
	Short: "Reading-time estimation over a fiction / self-help time budget",
	Long: `readalloc estimates how much reading gets done when free time is split
between fiction and self-help, finds the split that maximizes it, and maps
the response over every pair of allocations.

Computations run locally against the configured estimator, or against a
running readalloc API when --server is set.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&modelFile, "model", "m", "", "estimator definition file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "readalloc API URL; computations run locally when empty")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "API auth username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "API auth password")
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// IsRemote reports whether commands are sent to a running API.
func IsRemote() bool {
	return serverURL != ""
}
