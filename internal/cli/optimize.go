package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/server"
	"github.com/haskel/readalloc/internal/storage"
	"github.com/haskel/readalloc/internal/surface"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the fiction share that maximizes reading time",
	Long: `Search the proportion of the total budget spent on fiction that
maximizes the estimated reading time. The result is recorded in the run
history.

Examples:
  readalloc optimize --total 120
  readalloc optimize --total 120 --sharpe --json`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Map reading time over every pair of allocations",
	Long: `Evaluate the estimator on a square grid of fiction and self-help
minutes and draw it as a heat map. Cells where fiction plus self-help
exceed the max time are left blank.`,
	Args: cobra.NoArgs,
	RunE: runGrid,
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Show how the optimum converges with the iteration cap",
	Long: `Run the optimizer with an increasing iteration cap and report how far
each capped optimum lies from the last one.`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

var (
	optTotal   float64
	optSharpe  bool
	optMaxIter int
	optXAtol   float64

	gridMaxTime float64
	gridStep    float64
	gridSharpe  bool

	trackTotal  float64
	trackSharpe bool
	trackIters  int
	trackXAtol  float64
)

func init() {
	optimizeCmd.Flags().Float64Var(&optTotal, "total", 0, "total budget in minutes (default from config)")
	optimizeCmd.Flags().BoolVar(&optSharpe, "sharpe", false, "maximize the Sharpe ratio instead of the mean")
	optimizeCmd.Flags().IntVar(&optMaxIter, "max-iter", 0, "iteration cap (default from config)")
	optimizeCmd.Flags().Float64Var(&optXAtol, "xatol", 0, "absolute tolerance on the proportion (default from config)")

	gridCmd.Flags().Float64Var(&gridMaxTime, "max-time", 0, "largest allocation on each axis (default from config)")
	gridCmd.Flags().Float64Var(&gridStep, "step", 0, "grid spacing in minutes (default from config)")
	gridCmd.Flags().BoolVar(&gridSharpe, "sharpe", false, "map the Sharpe ratio instead of the mean")

	trackCmd.Flags().Float64Var(&trackTotal, "total", 0, "total budget in minutes (default from config)")
	trackCmd.Flags().BoolVar(&trackSharpe, "sharpe", false, "optimize the Sharpe ratio instead of the mean")
	trackCmd.Flags().IntVar(&trackIters, "max-iterations", 0, "largest iteration cap to try (default from config)")
	trackCmd.Flags().Float64Var(&trackXAtol, "xatol", 0, "absolute tolerance on the proportion (default from config)")

	rootCmd.AddCommand(optimizeCmd, gridCmd, trackCmd)
}

// changed collects the set flags under their JSON field names so a remote
// request only overrides what was given on the command line.
func changed(cmd *cobra.Command, fields map[string]string, values map[string]any) map[string]any {
	body := map[string]any{}
	for flag, field := range fields {
		if cmd.Flags().Changed(flag) {
			body[field] = values[flag]
		}
	}
	return body
}

func runOptimize(cmd *cobra.Command, args []string) error {
	var run *storage.Run

	if IsRemote() {
		body := changed(cmd,
			map[string]string{"total": "total_budget", "sharpe": "sharpe", "max-iter": "max_iter", "xatol": "xatol"},
			map[string]any{"total": optTotal, "sharpe": optSharpe, "max-iter": optMaxIter, "xatol": optXAtol},
		)
		run = &storage.Run{}
		if err := NewClient().Post(cmd.Context(), "/v1/optimize", body, run); err != nil {
			return err
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		req := s.engine.NewOptimizeRequest()
		if cmd.Flags().Changed("total") {
			req.TotalBudget = optTotal
		}
		if cmd.Flags().Changed("sharpe") {
			req.Sharpe = optSharpe
		}
		if cmd.Flags().Changed("max-iter") {
			req.MaxIter = optMaxIter
		}
		if cmd.Flags().Changed("xatol") {
			req.XAtol = optXAtol
		}
		if run, err = s.engine.Optimize(cmd.Context(), req); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, run)
	}
	printRun(out, run)
	return nil
}

func printRun(w io.Writer, run *storage.Run) {
	label := "reading time"
	if run.Sharpe {
		label = "sharpe ratio"
	}
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  total budget:  %.4g min\n", run.TotalBudget)
	fmt.Fprintf(w, "  proportion:    %.4f\n", run.Proportion)
	fmt.Fprintf(w, "  fiction:       %.4g min\n", run.Fiction)
	fmt.Fprintf(w, "  self-help:     %.4g min\n", run.Help)
	fmt.Fprintf(w, "  %-14s %s\n", label+":", formatReading(run.Reading))
	fmt.Fprintf(w, "  converged:     %s (%d iterations, %d evaluations)\n", yesNo(run.Success), run.Iterations, run.Evaluations)
	if !run.Success {
		fmt.Fprintf(w, "  message:       %s\n", run.Message)
	}
}

func runGrid(cmd *cobra.Command, args []string) error {
	var g *surface.Grid

	if IsRemote() {
		body := changed(cmd,
			map[string]string{"max-time": "max_time", "step": "step", "sharpe": "sharpe"},
			map[string]any{"max-time": gridMaxTime, "step": gridStep, "sharpe": gridSharpe},
		)
		g = &surface.Grid{}
		if err := NewClient().Post(cmd.Context(), "/v1/grid", body, g); err != nil {
			return err
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		req := s.engine.NewGridRequest()
		if cmd.Flags().Changed("max-time") {
			req.MaxTime = gridMaxTime
		}
		if cmd.Flags().Changed("step") {
			req.Step = gridStep
		}
		if cmd.Flags().Changed("sharpe") {
			req.Sharpe = gridSharpe
		}
		if g, err = s.engine.Grid(cmd.Context(), req); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, g)
	}
	fmt.Fprintln(out, surface.Render(g))
	if f, h, v, ok := g.Best(); ok {
		fmt.Fprintf(out, "best: fiction %.4g  self-help %.4g  ->  %s\n", f, h, formatReading(v))
	}
	return nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	var errs []float64

	if IsRemote() {
		body := changed(cmd,
			map[string]string{"total": "total_budget", "sharpe": "sharpe", "max-iterations": "max_iterations", "xatol": "xatol"},
			map[string]any{"total": trackTotal, "sharpe": trackSharpe, "max-iterations": trackIters, "xatol": trackXAtol},
		)
		var resp server.TrackResponse
		if err := NewClient().Post(cmd.Context(), "/v1/track", body, &resp); err != nil {
			return err
		}
		errs = make([]float64, len(resp.Errors))
		for i, v := range resp.Errors {
			errs[i] = math.NaN()
			if v != nil {
				errs[i] = *v
			}
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		req := s.engine.NewTrackRequest()
		if cmd.Flags().Changed("total") {
			req.TotalBudget = trackTotal
		}
		if cmd.Flags().Changed("sharpe") {
			req.Sharpe = trackSharpe
		}
		if cmd.Flags().Changed("max-iterations") {
			req.MaxIterations = trackIters
		}
		if cmd.Flags().Changed("xatol") {
			req.XAtol = trackXAtol
		}
		if errs, err = s.engine.Track(cmd.Context(), req); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		resp := server.TrackResponse{Errors: make([]*float64, len(errs))}
		for i := range errs {
			if !math.IsNaN(errs[i]) && !math.IsInf(errs[i], 0) {
				resp.Errors[i] = &errs[i]
			}
		}
		return printJSON(out, resp)
	}
	if len(errs) == 0 {
		fmt.Fprintln(out, "converged on the first iteration cap")
		return nil
	}
	for i, e := range errs {
		fmt.Fprintf(out, "cap %3d  distance %s\n", i, formatReading(e))
	}
	fmt.Fprintln(out, surface.Sparkline(errs))
	return nil
}
