// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runner

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Report is the outcome of one scenario run.
type Report struct {
	Passed   bool            `yaml:"passed"`
	Steps    []StepReport    `yaml:"steps"`
	Accounts []AccountReport `yaml:"accounts"`
}

// StepReport is the outcome of one step.
type StepReport struct {
	Kind      string `yaml:"kind"`
	Name      string `yaml:"name"`
	Account   string `yaml:"account"`
	Location  string `yaml:"location"`
	Runs      int    `yaml:"runs"`
	Succeeded int    `yaml:"succeeded"`
	Failed    int    `yaml:"failed"`
	// Errors are the distinct failure reasons, e.g. "NoSuchEntryPoint".
	Errors []string `yaml:"errors,omitempty"`
	// Returned is the value returned by the last successful run.
	Returned string `yaml:"returned,omitempty"`
	// Value is the value a query resolved to.
	Value  string `yaml:"value,omitempty"`
	Passed bool   `yaml:"passed"`
	// Problem explains why the step did not pass.
	Problem string `yaml:"problem,omitempty"`
}

// AccountReport lists an account's named keys after the run.
type AccountReport struct {
	Name      string            `yaml:"name"`
	Hash      string            `yaml:"hash"`
	NamedKeys map[string]string `yaml:"named_keys"`
}

// WriteYAML renders the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
