package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/estimator/model"
	"github.com/haskel/readalloc/internal/storage"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the estimator definition",
	Long: `Manage the estimator definition used when neither --model nor
estimator.definition is set. The definition is saved in the data
directory.`,
}

var modelInitCmd = &cobra.Command{
	Use:   "init [definition.yaml]",
	Short: "Save an estimator definition to the data directory",
	Long: `Validate a definition file and save it to the data directory. Without
an argument the built-in demo estimator is saved, which is a useful
starting point for editing.

Examples:
  readalloc model init
  readalloc model init kriging.yaml --force
  readalloc model init --out estimator.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelInit,
}

var modelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the estimator definition in effect",
	Args:  cobra.NoArgs,
	RunE:  runModelShow,
}

var modelDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the saved estimator definition",
	Args:  cobra.NoArgs,
	RunE:  runModelDelete,
}

var (
	modelForce bool
	modelOut   string
)

func init() {
	modelInitCmd.Flags().BoolVar(&modelForce, "force", false, "overwrite an existing definition")
	modelInitCmd.Flags().StringVarP(&modelOut, "out", "o", "", "write to this file instead of the data directory")
	modelCmd.AddCommand(modelInitCmd, modelShowCmd, modelDeleteCmd)
	rootCmd.AddCommand(modelCmd)
}

func modelStorage() (*storage.ModelStorage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.NewModelStorage(cfg.Persistence.DataDir, newLogger(cfg, false)), nil
}

func runModelInit(cmd *cobra.Command, args []string) error {
	def := model.DefaultDefinition()
	if len(args) == 1 {
		loaded, err := model.LoadDefinition(args[0])
		if err != nil {
			return err
		}
		def = loaded
	}

	out := cmd.OutOrStdout()

	if modelOut != "" {
		if _, err := os.Stat(modelOut); err == nil && !modelForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", modelOut)
		}
		data, err := def.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(modelOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write definition: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s estimator definition to %s\n", def.Kind, modelOut)
		return nil
	}

	ms, err := modelStorage()
	if err != nil {
		return err
	}
	if ms.DefinitionExists() && !modelForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", ms.Path())
	}
	if err := ms.SaveDefinition(def); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s estimator definition to %s\n", def.Kind, ms.Path())
	return nil
}

// ModelReport is the output of model show.
type ModelReport struct {
	Source     string                 `json:"source"`
	Saved      storage.DefinitionInfo `json:"saved"`
	Definition *model.Definition      `json:"definition"`
}

func runModelShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ms := storage.NewModelStorage(cfg.Persistence.DataDir, newLogger(cfg, false))

	def, source, err := engine.ResolveDefinition(modelFile, cfg.Estimator, ms)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, ModelReport{Source: source, Saved: ms.GetDefinitionInfo(), Definition: def})
	}

	data, err := def.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# source: %s\n%s", source, data)
	return nil
}

func runModelDelete(cmd *cobra.Command, args []string) error {
	ms, err := modelStorage()
	if err != nil {
		return err
	}
	if !ms.DefinitionExists() {
		return errors.New("no saved estimator definition")
	}
	if err := ms.DeleteDefinition(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", ms.Path())
	return nil
}
