// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scenario

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/ctxlog"
	"github.com/vk/countergrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// fileSchema lists the top-level blocks a scenario file may contain.
// Decoding block by block keeps their source order.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "genesis"},
		{Type: string(StepDeploy), LabelNames: []string{"name"}},
		{Type: string(StepCall), LabelNames: []string{"name"}},
		{Type: string(StepQuery), LabelNames: []string{"name"}},
	},
}

type genesisBlock struct {
	Accounts []string `hcl:"accounts,optional"`
}

type outcomeFields struct {
	Account *string `hcl:"account,optional"`
	Expect  *string `hcl:"expect,optional"`
	Error   *string `hcl:"error,optional"`
}

type deployBody struct {
	Account *string   `hcl:"account,optional"`
	Expect  *string   `hcl:"expect,optional"`
	Error   *string   `hcl:"error,optional"`
	Session string    `hcl:"session"`
	Args    cty.Value `hcl:"args,optional"`
}

type callBody struct {
	Account    *string   `hcl:"account,optional"`
	Expect     *string   `hcl:"expect,optional"`
	Error      *string   `hcl:"error,optional"`
	Contract   *string   `hcl:"contract,optional"`
	Package    *string   `hcl:"package,optional"`
	Version    *uint32   `hcl:"version,optional"`
	Hash       *string   `hcl:"hash,optional"`
	EntryPoint string    `hcl:"entry_point"`
	Args       cty.Value `hcl:"args,optional"`
	Count      *int      `hcl:"count,optional"`
	Parallel   *bool     `hcl:"parallel,optional"`
	Returns    cty.Value `hcl:"returns,optional"`
}

type queryBody struct {
	Account *string   `hcl:"account,optional"`
	Expect  *string   `hcl:"expect,optional"`
	Error   *string   `hcl:"error,optional"`
	Path    []string  `hcl:"path,optional"`
	Equals  cty.Value `hcl:"equals,optional"`
}

// Load reads every .hcl file under paths (files or directories) and
// decodes them into one Scenario.
func Load(ctx context.Context, paths ...string) (*Scenario, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl scenario files found in %v", paths)
	}
	logger.Debug("Discovered scenario files.", "count", len(files))

	parser := hclparse.NewParser()
	sc := &Scenario{}
	seenAccounts := make(map[string]struct{})
	seenSteps := make(map[string]hcl.Range)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := decodeFile(hclFile.Body, sc, seenAccounts, seenSteps); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}

	if len(sc.Accounts) == 0 {
		sc.Accounts = []string{DefaultAccount}
	}
	logger.Debug("Scenario loaded.", "accounts", len(sc.Accounts), "steps", len(sc.Steps))
	return sc, nil
}

// Parse decodes one scenario held in memory. filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (*Scenario, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	sc := &Scenario{}
	if err := decodeFile(hclFile.Body, sc, make(map[string]struct{}), make(map[string]hcl.Range)); err != nil {
		return nil, fmt.Errorf("failed to decode HCL %s: %w", filename, err)
	}
	if len(sc.Accounts) == 0 {
		sc.Accounts = []string{DefaultAccount}
	}
	return sc, nil
}

func decodeFile(body hcl.Body, sc *Scenario, seenAccounts map[string]struct{}, seenSteps map[string]hcl.Range) error {
	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return diags
	}

	for _, block := range content.Blocks {
		if block.Type == "genesis" {
			var g genesisBlock
			if diags := gohcl.DecodeBody(block.Body, nil, &g); diags.HasErrors() {
				return diags
			}
			for _, name := range g.Accounts {
				if _, ok := seenAccounts[name]; ok {
					continue
				}
				seenAccounts[name] = struct{}{}
				sc.Accounts = append(sc.Accounts, name)
			}
			continue
		}

		step, err := decodeStep(block)
		if err != nil {
			return fmt.Errorf("%s: %s %q: %w", block.DefRange, block.Type, block.Labels[0], err)
		}
		id := block.Type + "." + step.Name
		if prev, ok := seenSteps[id]; ok {
			return fmt.Errorf("%s: duplicate %s %q, first defined at %s", block.DefRange, block.Type, step.Name, prev)
		}
		seenSteps[id] = block.DefRange
		sc.Steps = append(sc.Steps, step)
	}
	return nil
}

func decodeStep(block *hcl.Block) (Step, error) {
	step := Step{
		Kind:  StepKind(block.Type),
		Name:  block.Labels[0],
		Range: block.DefRange,
	}

	var (
		common outcomeFields
		err    error
	)
	switch step.Kind {
	case StepDeploy:
		var b deployBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return step, diags
		}
		common = outcomeFields{Account: b.Account, Expect: b.Expect, Error: b.Error}
		step.Deploy = &Deploy{Session: b.Session}
		if step.Deploy.Args, err = ArgsFromCty(b.Args); err != nil {
			return step, err
		}

	case StepCall:
		var b callBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return step, diags
		}
		common = outcomeFields{Account: b.Account, Expect: b.Expect, Error: b.Error}
		if step.Call, err = buildCall(b); err != nil {
			return step, err
		}

	case StepQuery:
		var b queryBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return step, diags
		}
		common = outcomeFields{Account: b.Account, Expect: b.Expect, Error: b.Error}
		step.Query = &Query{Path: b.Path, Equals: b.Equals}
	}

	step.Account = DefaultAccount
	if common.Account != nil {
		step.Account = *common.Account
	}
	step.Expect, err = buildExpectation(common.Expect, common.Error)
	return step, err
}

func buildCall(b callBody) (*Call, error) {
	c := &Call{EntryPoint: b.EntryPoint, Count: 1, Version: b.Version, Returns: b.Returns}

	targets := 0
	if b.Contract != nil {
		c.Contract = *b.Contract
		targets++
	}
	if b.Package != nil {
		c.Package = *b.Package
		targets++
	}
	if b.Hash != nil {
		c.Hash = *b.Hash
		targets++
	}
	if targets != 1 {
		return nil, fmt.Errorf("exactly one of contract, package or hash must be set")
	}
	if b.Version != nil && b.Package == nil {
		return nil, fmt.Errorf("version requires package")
	}

	if b.Count != nil {
		if *b.Count < 1 {
			return nil, fmt.Errorf("count must be at least 1, got %d", *b.Count)
		}
		c.Count = *b.Count
	}
	if b.Parallel != nil {
		c.Parallel = *b.Parallel
	}

	var err error
	if c.Args, err = ArgsFromCty(b.Args); err != nil {
		return nil, err
	}
	return c, nil
}

func buildExpectation(expect, errName *string) (Expectation, error) {
	e := Expectation{Success: true}
	if expect != nil {
		switch *expect {
		case "success":
		case "failure":
			e.Success = false
		default:
			return e, fmt.Errorf("expect must be \"success\" or \"failure\", got %q", *expect)
		}
	}
	if errName != nil {
		if e.Success {
			return e, fmt.Errorf("error requires expect = \"failure\"")
		}
		code, err := apierror.ParseCode(*errName)
		if err != nil {
			return e, err
		}
		e.Code = &code
	}
	return e, nil
}
