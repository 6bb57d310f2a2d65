package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/allocation"
	"github.com/haskel/readalloc/internal/estimator"
	"github.com/haskel/readalloc/internal/server"
)

var predictCmd = &cobra.Command{
	Use:   "predict <fiction> <help> [<fiction> <help>...]",
	Short: "Estimate reading time for allocations of free time",
	Long: `Estimate the reading time for one or more allocations, each given as
minutes of fiction followed by minutes of self-help.

Examples:
  readalloc predict 30 60
  readalloc predict 30 60 45 45 --sharpe`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected pairs of <fiction> <help> minutes, got %d values", len(args))
		}
		return nil
	},
	RunE: runPredict,
}

var objectiveCmd = &cobra.Command{
	Use:   "objective <proportion>",
	Short: "Estimate reading time for a fiction share of the total budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runObjective,
}

var (
	predictSharpe bool
	predictNegate bool
	objectiveTot  float64
)

func init() {
	for _, cmd := range []*cobra.Command{predictCmd, objectiveCmd} {
		cmd.Flags().BoolVar(&predictSharpe, "sharpe", false, "divide by the predicted standard deviation")
		cmd.Flags().BoolVar(&predictNegate, "negate", false, "negate the result")
	}
	objectiveCmd.Flags().Float64Var(&objectiveTot, "total", 0, "total budget in minutes (default from config)")
	rootCmd.AddCommand(predictCmd, objectiveCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	rows := make([][2]float64, len(args)/2)
	for i := range rows {
		f, err := parseFloat("fiction", args[2*i])
		if err != nil {
			return err
		}
		h, err := parseFloat("help", args[2*i+1])
		if err != nil {
			return err
		}
		rows[i] = [2]float64{f, h}
	}

	req := server.PredictRequest{
		Allocations: rows,
		Sharpe:      boolFlag(cmd, "sharpe", predictSharpe),
		Negate:      predictNegate,
	}

	var resp server.PredictResponse
	if IsRemote() {
		if err := NewClient().Post(cmd.Context(), "/v1/predict", req, &resp); err != nil {
			return err
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		sharpe := s.engine.Info().Sharpe
		if req.Sharpe != nil {
			sharpe = *req.Sharpe
		}
		resp.Reading, err = s.engine.Predict(cmd.Context(), allocation.NewBatch(rows), sharpe, req.Negate)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, resp)
	}
	values := resp.Reading.Values()
	for i, r := range rows {
		fmt.Fprintf(out, "fiction %8.2f  self-help %8.2f  ->  %s\n", r[0], r[1], formatReading(values[i]))
	}
	return nil
}

func runObjective(cmd *cobra.Command, args []string) error {
	p, err := parseFloat("proportion", args[0])
	if err != nil {
		return err
	}

	req := server.ObjectiveRequest{
		Proportion: &p,
		Sharpe:     boolFlag(cmd, "sharpe", predictSharpe),
		Negate:     predictNegate,
	}
	if cmd.Flags().Changed("total") {
		req.TotalBudget = &objectiveTot
	}

	var resp server.ObjectiveResponse
	if IsRemote() {
		if err := NewClient().Post(cmd.Context(), "/v1/objective", req, &resp); err != nil {
			return err
		}
	} else {
		s, err := openSession(cmd.Context(), sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()

		total := s.engine.NewOptimizeRequest().TotalBudget
		if req.TotalBudget != nil {
			total = *req.TotalBudget
		}
		sharpe := s.engine.Info().Sharpe
		if req.Sharpe != nil {
			sharpe = *req.Sharpe
		}
		v, err := s.engine.Objective(cmd.Context(), p, total, sharpe, req.Negate)
		if err != nil {
			return err
		}
		resp = server.ObjectiveResponse{
			Proportion: p,
			Fiction:    p * total,
			Help:       (1 - p) * total,
			Reading:    estimator.NewReading([]float64{v}),
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, resp)
	}
	v, _ := resp.Reading.Scalar()
	fmt.Fprintf(out, "fiction %.2f  self-help %.2f  ->  %s\n", resp.Fiction, resp.Help, formatReading(v))
	return nil
}
