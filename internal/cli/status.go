package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/server"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the estimator in use",
	Long: `Show the estimator that computations run against: the running API's
with --server, the local one otherwise.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var info server.InfoResponse

	if IsRemote() {
		client := NewClient()
		if err := client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("server is not healthy: %w", err)
		}
		if err := client.Get(cmd.Context(), "/", &info); err != nil {
			return err
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		info = server.InfoResponse{Name: "readalloc", Version: Version, Estimator: s.engine.Info()}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, info)
	}

	where := "local"
	if IsRemote() {
		where = serverURL
	}
	fmt.Fprintf(out, "%s %s (%s)\n", info.Name, info.Version, where)
	fmt.Fprintf(out, "  estimator:    %s\n", info.Estimator.Kind)
	fmt.Fprintf(out, "  source:       %s\n", info.Estimator.Source)
	fmt.Fprintf(out, "  uncertainty:  %s\n", yesNo(info.Estimator.Uncertainty))
	fmt.Fprintf(out, "  sharpe:       %s\n", yesNo(info.Estimator.Sharpe))
	return nil
}
