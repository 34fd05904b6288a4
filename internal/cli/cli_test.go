package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("positional path with defaults", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"scenarios/"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "scenarios/", cfg.ScenarioPath)
		assert.Equal(t, 10, cfg.WorkerCount)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.StatePath)
	})

	t.Run("all flags", func(t *testing.T) {
		cfg, _, err := Parse([]string{
			"--scenario", "a.hcl",
			"--state", "state.db",
			"--workers", "3",
			"--log-format", "JSON",
			"--log-level", "debug",
			"--log-file", "run.log",
			"--report", "-",
			"--metrics-out", "m.prom",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.ScenarioPath)
		assert.Equal(t, "state.db", cfg.StatePath)
		assert.Equal(t, 3, cfg.WorkerCount)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "run.log", cfg.LogFile)
		assert.Equal(t, "-", cfg.ReportPath)
		assert.Equal(t, "m.prom", cfg.MetricsPath)
	})

	t.Run("shorthand wins over positional", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-s", "short.hcl", "positional.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "short.hcl", cfg.ScenarioPath)
	})

	t.Run("no path prints usage", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(nil, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "countergrid [options] [SCENARIO_PATH]")
	})

	t.Run("help", func(t *testing.T) {
		_, exit, err := Parse([]string{"-h"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, exit)
	})
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "bad log format", args: []string{"--log-format", "xml", "a.hcl"}},
		{name: "bad log level", args: []string{"--log-level", "loud", "a.hcl"}},
		{name: "zero workers", args: []string{"--workers", "0", "a.hcl"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestParse_EnvDefaults(t *testing.T) {
	t.Setenv("COUNTERGRID_SCENARIO", "env.hcl")
	t.Setenv("COUNTERGRID_WORKERS", "7")

	cfg, _, err := Parse([]string{"--workers", "2"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "env.hcl", cfg.ScenarioPath)
	assert.Equal(t, 2, cfg.WorkerCount, "flags override the environment")
}
