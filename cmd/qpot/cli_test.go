package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/qpot/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	return out.String(), err
}

func TestCLI_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "qpot dev\n", out)
}

func TestCLI_Models(t *testing.T) {
	out, err := execute(t, "models", "--log-level", "error")
	require.NoError(t, err)
	for _, name := range []string{"holling", "gradient", "rotational", "double-well", "vanderpol-damped"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "alpha=1.54")
}

func TestCLI_BadLogLevel(t *testing.T) {
	_, err := execute(t, "version", "--log-level", "loud")
	assert.Error(t, err)
}

func TestCLI_Solve(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
domain: {x_lo: -2, x_hi: 2, y_lo: -1, y_hi: 1, nx: 41, ny: 21}
model: {name: double-well}
`), 0o600))
	out := filepath.Join(dir, "out")

	stdout, err := execute(t, "solve", "--log-level", "error", "-c", cfg, "-o", out, "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "offsets:")
	for _, name := range []string{"global.json", "local_0.json", "local_1.json", "gradient.csv", "summary.json"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestCLI_SolveBadFormat(t *testing.T) {
	_, err := execute(t, "solve", "--log-level", "error", "-f", "xml", "-o", t.TempDir())
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "warn")
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
