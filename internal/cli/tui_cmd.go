package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/cli/tui"
)

var (
	proportionStep float64
	budgetStep     float64
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Explore allocations interactively",
	Long: `Launch an interactive terminal interface for moving the fiction share
and total budget and watching the estimated reading time respond.

Examples:
  readalloc tui
  readalloc tui --proportion-step 0.01 --budget-step 5`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Float64Var(&proportionStep, "proportion-step", 0.05, "proportion change per key press")
	tuiCmd.Flags().Float64Var(&budgetStep, "budget-step", 10, "budget change in minutes per key press")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if IsRemote() {
		return errors.New("tui runs against the local estimator; drop --server")
	}

	s, err := openSession(cmd.Context(), sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	return tui.Run(tui.Config{
		Explorer:       s.engine,
		ProportionStep: proportionStep,
		BudgetStep:     budgetStep,
	})
}
