package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/dataset"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <sheet.csv>",
	Short: "Reshape the wide experiment sheet into one row per observation",
	Long: `Read the wide experiment sheet, with one Fiction.N / Self-Help.N column
pair per strategy and the free-time budgets in the first data row, and
write one CSV row per observation and strategy.

Examples:
  readalloc prepare results.csv
  readalloc prepare results.csv --out long.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

var prepareOut string

func init() {
	prepareCmd.Flags().StringVarP(&prepareOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	wide, err := dataset.ReadWideFile(args[0])
	if err != nil {
		return err
	}
	records := wide.Long()

	if jsonOut {
		return printJSON(cmd.OutOrStdout(), records)
	}

	var w io.Writer = cmd.OutOrStdout()
	if prepareOut != "" {
		f, err := os.Create(prepareOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := dataset.WriteLongCSV(w, records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	if prepareOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records for %d strategies to %s\n", len(records), len(wide.Strategies()), prepareOut)
	}
	return nil
}
