package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded optimization runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs, newest first (0 for all)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	var runs []*storage.Run

	if IsRemote() {
		if err := NewClient().Get(cmd.Context(), fmt.Sprintf("/v1/runs?limit=%d", runsLimit), &runs); err != nil {
			return err
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		if runs, err = s.engine.Runs(cmd.Context(), runsLimit); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if runs == nil {
			runs = []*storage.Run{}
		}
		return printJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tKIND\tSHARPE\tBUDGET\tPROPORTION\tREADING\tCONVERGED\tID")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4g\t%.4f\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind, yesNo(r.Sharpe), r.TotalBudget, r.Proportion,
			formatReading(r.Reading), yesNo(r.Success), r.ID,
		)
	}
	return tw.Flush()
}
