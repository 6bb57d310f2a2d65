package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/estimator/model"
	"github.com/haskel/readalloc/internal/logger"
	"github.com/haskel/readalloc/internal/server"
	"github.com/haskel/readalloc/internal/storage"
	"github.com/haskel/readalloc/internal/surface"
	"github.com/haskel/readalloc/internal/synth"
)

// linearModel reads 2 per minute of fiction and 3 per minute of self-help.
const linearModel = `kind: generic
model:
  type: linear
  coefficients: [2, 3]
`

// resetFlags restores every flag to its default so commands can run more
// than once in a test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

// setup writes a config rooted at a temp data dir and the linear model, and
// returns the flags that select them.
func setup(t *testing.T) (dataDir string, flags []string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")

	cfgPath := filepath.Join(dir, "readalloc.yaml")
	cfg := "persistence:\n  data_dir: " + dataDir + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	modelPath := filepath.Join(dir, "linear.yaml")
	require.NoError(t, os.WriteFile(modelPath, []byte(linearModel), 0644))

	return dataDir, []string{"-c", cfgPath, "-m", modelPath}
}

func withFlags(flags []string, rest ...string) []string {
	return append(append([]string{}, flags...), rest...)
}

func TestPredict(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "predict", "10", "20", "30", "0")...)
	require.NoError(t, err)
	assert.Contains(t, out, "->  80")
	assert.Contains(t, out, "->  60")

	out, err = execute(t, withFlags(flags, "--json", "predict", "10", "20")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reading": 80}`, out)
}

func TestPredict_BadArgs(t *testing.T) {
	_, flags := setup(t)

	_, err := execute(t, withFlags(flags, "predict", "10")...)
	assert.Error(t, err)

	_, err = execute(t, withFlags(flags, "predict", "ten", "20")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid fiction")

	_, err = execute(t, withFlags(flags, "predict", "--sharpe", "10", "20")...)
	assert.ErrorIs(t, err, engine.ErrNoUncertainty)
}

func TestObjective(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "objective", "0.25", "--total", "100")...)
	require.NoError(t, err)
	assert.Contains(t, out, "fiction 25.00  self-help 75.00")
	assert.Contains(t, out, "->  275")

	out, err = execute(t, withFlags(flags, "--json", "objective", "0.25", "--total", "100", "--negate")...)
	require.NoError(t, err)
	var resp server.ObjectiveResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	v, ok := resp.Reading.Scalar()
	assert.True(t, ok)
	assert.Equal(t, -275.0, v)
}

func TestOptimizeAndRuns(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "--json", "optimize", "--total", "100")...)
	require.NoError(t, err)

	var run storage.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.True(t, run.Success)
	assert.InDelta(t, 0, run.Proportion, 1e-3)
	assert.InDelta(t, 300, run.Reading, 0.5)
	assert.Equal(t, 100.0, run.TotalBudget)

	out, err = execute(t, withFlags(flags, "--json", "runs")...)
	require.NoError(t, err)
	var runs []*storage.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	out, err = execute(t, withFlags(flags, "runs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "PROPORTION")
	assert.Contains(t, out, run.ID.String())
}

func TestOptimize_Text(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "optimize", "--total", "100")...)
	require.NoError(t, err)
	assert.Contains(t, out, "total budget:  100 min")
	assert.Contains(t, out, "converged:     yes")
}

func TestOptimize_Invalid(t *testing.T) {
	_, flags := setup(t)

	_, err := execute(t, withFlags(flags, "optimize", "--total", "-5")...)
	assert.ErrorIs(t, err, engine.ErrInvalidRequest)
}

func TestRuns_Empty(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "runs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")

	out, err = execute(t, withFlags(flags, "--json", "runs")...)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestGrid(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "--json", "grid", "--max-time", "10", "--step", "5")...)
	require.NoError(t, err)

	var g surface.Grid
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, []float64{0, 5, 10}, g.Fiction)
	assert.Equal(t, 25.0, g.Values[1][1])

	out, err = execute(t, withFlags(flags, "grid", "--max-time", "10", "--step", "5")...)
	require.NoError(t, err)
	assert.Contains(t, out, surface.TitleReading)
	assert.Contains(t, out, "best:")

	_, err = execute(t, withFlags(flags, "grid", "--step", "0")...)
	assert.ErrorIs(t, err, engine.ErrInvalidRequest)
}

func TestTrack(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "--json", "track", "--total", "100", "--max-iterations", "5")...)
	require.NoError(t, err)

	var resp server.TrackResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.LessOrEqual(t, len(resp.Errors), 5)
}

func TestSample(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "--json", "sample", "30", "60", "--n", "200", "--seed", "3")...)
	require.NoError(t, err)

	var report SampleReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 200, report.Summary.N)
	assert.Equal(t, uint64(3), report.Seed)

	// The linear model is not a process, so the built-in one is sampled.
	process, err := synth.DefaultSaturating().Process()
	require.NoError(t, err)
	assert.InDelta(t, process.ExpectedSum(30, 60), report.ExpectedTotal, 1e-9)

	again, err := execute(t, withFlags(flags, "--json", "sample", "30", "60", "--n", "200", "--seed", "3")...)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = execute(t, withFlags(flags, "sample", "30", "60", "--n", "0")...)
	assert.Error(t, err)
}

const sheet = `Fiction,Self-Help,Unnamed: 2,Fiction.1,Self-Help.1
10,20,,30,40
label,label,,label,label
1,2,,3,4
5,,,7,8
`

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sheet.csv")
	outPath := filepath.Join(dir, "long.csv")
	require.NoError(t, os.WriteFile(in, []byte(sheet), 0644))

	_, err := execute(t, "prepare", in, "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "strategy,reading_fiction,reading_help,free_fiction,free_help,total_reading", lines[0])
	assert.Equal(t, "0,1,2,10,20,3", lines[1])

	_, err = execute(t, "prepare", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestModelCommands(t *testing.T) {
	dataDir, flags := setup(t)
	cfgFlags := flags[:2]

	out, err := execute(t, withFlags(cfgFlags, "model", "init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved generic estimator definition")
	assert.FileExists(t, filepath.Join(dataDir, "estimator.yaml"))

	_, err = execute(t, withFlags(cfgFlags, "model", "init")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err = execute(t, withFlags(cfgFlags, "model", "show")...)
	require.NoError(t, err)
	assert.Contains(t, out, "# source: saved")
	assert.Contains(t, out, "gaussian_process")

	out, err = execute(t, withFlags(flags, "model", "show")...)
	require.NoError(t, err)
	assert.Contains(t, out, "# source: "+flags[3])
	assert.Contains(t, out, "type: linear")

	out, err = execute(t, withFlags(cfgFlags, "model", "delete")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, err = execute(t, withFlags(cfgFlags, "model", "delete")...)
	assert.Error(t, err)

	out, err = execute(t, withFlags(cfgFlags, "--json", "model", "show")...)
	require.NoError(t, err)
	var report ModelReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, engine.SourceBuiltin, report.Source)
	assert.False(t, report.Saved.Exists)
}

func TestModelInit_Out(t *testing.T) {
	_, flags := setup(t)
	path := filepath.Join(t.TempDir(), "copy.yaml")

	_, err := execute(t, "model", "init", flags[3], "--out", path)
	require.NoError(t, err)

	def, err := model.LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, model.ModelTypeLinear, def.Model.Type)

	_, err = execute(t, "model", "init", "--out", path)
	assert.Error(t, err)

	_, err = execute(t, "model", "init", "--out", path, "--force")
	assert.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags[:2], "config", "--validate")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = execute(t, withFlags(flags[:2], "config")...)
	require.NoError(t, err)
	assert.Contains(t, out, "total_budget: 120")

	_, err = execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "config")
	assert.Error(t, err)
}

func TestStatus_Local(t *testing.T) {
	_, flags := setup(t)

	out, err := execute(t, withFlags(flags, "status")...)
	require.NoError(t, err)
	assert.Contains(t, out, "(local)")
	assert.Contains(t, out, "estimator:    generic")
	assert.Contains(t, out, "uncertainty:  no")
}

func TestStop_PIDFile(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "stop", "--pid-file", filepath.Join(dir, "missing.pid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PID file not found")

	bad := filepath.Join(dir, "bad.pid")
	require.NoError(t, os.WriteFile(bad, []byte("not-a-pid"), 0644))
	_, err = execute(t, "reload", "--pid-file", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid PID")
}

func TestServeAndTUI_RejectRemote(t *testing.T) {
	_, err := execute(t, "--server", "http://127.0.0.1:1", "serve")
	assert.Error(t, err)

	_, err = execute(t, "--server", "http://127.0.0.1:1", "tui")
	assert.Error(t, err)
}

func newRemote(t *testing.T) string {
	t.Helper()
	def, err := model.ParseDefinition([]byte(linearModel))
	require.NoError(t, err)

	eng, err := engine.NewFromDefinition(def, "test", engine.Options{Logger: logger.Discard()})
	require.NoError(t, err)

	srv := server.New(config.Default(), eng, nil, logger.Discard(), "test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestRemote(t *testing.T) {
	url := newRemote(t)

	out, err := execute(t, "--server", url, "--json", "predict", "10", "20")
	require.NoError(t, err)
	assert.JSONEq(t, `{"reading": 80}`, out)

	out, err = execute(t, "--server", url, "objective", "0.25", "--total", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "->  275")

	out, err = execute(t, "--server", url, "--json", "optimize", "--total", "100")
	require.NoError(t, err)
	var run storage.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.InDelta(t, 300, run.Reading, 0.5)

	out, err = execute(t, "--server", url, "--json", "grid", "--max-time", "10", "--step", "5")
	require.NoError(t, err)
	var g surface.Grid
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Help, 3)

	_, err = execute(t, "--server", url, "track", "--max-iterations", "3")
	require.NoError(t, err)

	out, err = execute(t, "--server", url, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "readalloc test")
	assert.Contains(t, out, "source:       test")

	out, err = execute(t, "--server", url, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestRemote_APIError(t *testing.T) {
	url := newRemote(t)

	_, err := execute(t, "--server", url, "optimize", "--total", "-5")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "total_budget")
}
