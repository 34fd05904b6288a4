// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/countergrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. Defaults come from COUNTERGRID_*
// environment variables and flags override them. It returns a validated
// Config, a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	defaults, err := app.ConfigFromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("countergrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
countergrid - Installs and drives counter contracts against persistent global state.

Usage:
  countergrid [options] [SCENARIO_PATH]

Arguments:
  SCENARIO_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	scenarioFlag := flagSet.String("scenario", defaults.ScenarioPath, "Path to the scenario file or directory.")
	sFlag := flagSet.String("s", "", "Path to the scenario file or directory (shorthand).")
	stateFlag := flagSet.String("state", defaults.StatePath, "SQLite file holding global state. Empty keeps state in memory.")
	workersFlag := flagSet.Int("workers", defaults.WorkerCount, "Number of concurrent workers for parallel calls.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", defaults.LogFile, "Also write logs to this rotating file.")
	reportFlag := flagSet.String("report", defaults.ReportPath, "Write a YAML run report here. '-' writes it to stdout.")
	metricsFlag := flagSet.String("metrics-out", defaults.MetricsPath, "Write Prometheus metrics in text format to this file.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *scenarioFlag
	if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Scenario path determined.", "path", path)

	if path == "" {
		slog.Debug("No scenario path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ScenarioPath: path,
		StatePath:    *stateFlag,
		WorkerCount:  *workersFlag,
		LogFormat:    *logFormatFlag,
		LogLevel:     *logLevelFlag,
		LogFile:      *logFileFlag,
		ReportPath:   *reportFlag,
		MetricsPath:  *metricsFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
