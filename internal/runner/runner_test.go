package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/engine"
	"github.com/vk/countergrid/internal/globalstate/memory"
	"github.com/vk/countergrid/internal/registry"
	"github.com/vk/countergrid/internal/scenario"
	"github.com/vk/countergrid/modules/counter"
	"github.com/vk/countergrid/modules/countercall"
	"gopkg.in/yaml.v3"
)

func newRunner(workers int) *Runner {
	reg := registry.NewWith(&counter.Module{}, &countercall.Module{})
	return New(engine.New(memory.New(), reg), workers)
}

func mustParse(t *testing.T, src string) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Parse([]byte(src), "test.hcl")
	require.NoError(t, err)
	return sc
}

const lifecycle = `
deploy "install" {
  session = "counter"
}

query "initial" {
  path   = ["counter", "count"]
  equals = 0
}

query "version" {
  path   = ["version"]
  equals = 1
}

call "inc" {
  contract    = "counter"
  entry_point = "counter_inc"
  count       = 20
  parallel    = true
}

call "dec" {
  contract    = "counter"
  entry_point = "counter_dec"
  expect      = "failure"
  error       = "NoSuchEntryPoint"
}

call "get" {
  package     = "counter_package_name"
  entry_point = "counter_get"
  returns     = 20
}

deploy "call" {
  session = "counter_call"
}

query "final" {
  path   = ["counter", "count"]
  equals = 21
}
`

func TestRun_Lifecycle(t *testing.T) {
	r := newRunner(4)
	report, err := r.Run(context.Background(), mustParse(t, lifecycle))
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Len(t, report.Steps, 8)

	inc := report.Steps[3]
	assert.Equal(t, 20, inc.Runs)
	assert.Equal(t, 20, inc.Succeeded)
	assert.True(t, inc.Passed)

	dec := report.Steps[4]
	assert.Equal(t, 1, dec.Failed)
	assert.Equal(t, []string{"NoSuchEntryPoint"}, dec.Errors)

	assert.Equal(t, "I32(20)", report.Steps[5].Returned)

	require.Len(t, report.Accounts, 1)
	acct := report.Accounts[0]
	assert.Equal(t, scenario.DefaultAccount, acct.Name)
	assert.Contains(t, acct.NamedKeys, counter.ContractKey)
	assert.Contains(t, acct.NamedKeys, counter.PackageName)
	assert.Contains(t, acct.NamedKeys, counter.AccessName)
	assert.Contains(t, acct.NamedKeys, counter.VersionKey)
}

func TestRun_SequentialRepeats(t *testing.T) {
	r := newRunner(1)
	_, err := r.Run(context.Background(), mustParse(t, `
deploy "install" { session = "counter" }
call "inc" {
  contract    = "counter"
  entry_point = "counter_inc"
  count       = 5
}
query "count" {
  path   = ["counter", "count"]
  equals = 5
}
`))
	require.NoError(t, err)
}

func TestRun_StopsAtUnmetExpectation(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{
			name: "unexpected failure",
			src: `
deploy "install" { session = "counter" }
call "dec" {
  contract    = "counter"
  entry_point = "counter_dec"
}
query "never" { path = ["counter"] }`,
		},
		{
			name: "wrong error code",
			src: `
deploy "install" { session = "counter" }
call "dec" {
  contract    = "counter"
  entry_point = "counter_dec"
  expect      = "failure"
  error       = "MissingKey"
}
query "never" { path = ["counter"] }`,
		},
		{
			name: "wrong return value",
			src: `
deploy "install" { session = "counter" }
call "get" {
  contract    = "counter"
  entry_point = "counter_get"
  returns     = 5
}
query "never" { path = ["counter"] }`,
		},
		{
			name: "wrong query value",
			src: `
deploy "install" { session = "counter" }
query "count" {
  path   = ["counter", "count"]
  equals = 9
}
query "never" { path = ["counter"] }`,
		},
		{
			name: "unexpected success",
			src: `
deploy "install" {
  session = "counter"
  expect  = "failure"
}
query "never" { path = ["counter"] }`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := newRunner(2).Run(context.Background(), mustParse(t, tc.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExpectation))
			assert.False(t, report.Passed)
			require.NotEmpty(t, report.Steps)
			last := report.Steps[len(report.Steps)-1]
			assert.False(t, last.Passed)
			assert.NotEmpty(t, last.Problem)
			for _, s := range report.Steps {
				assert.NotEqual(t, "never", s.Name, "the run must stop at the failing step")
			}
		})
	}
}

func TestRun_QueryExpectedFailure(t *testing.T) {
	_, err := newRunner(1).Run(context.Background(), mustParse(t, `
query "missing" {
  path   = ["counter"]
  expect = "failure"
  error  = "MissingKey"
}`))
	require.NoError(t, err)
}

func TestRun_CallByHash(t *testing.T) {
	r := newRunner(1)
	report, err := r.Run(context.Background(), mustParse(t, `deploy "install" { session = "counter" }`))
	require.NoError(t, err)
	hash := report.Accounts[0].NamedKeys[counter.ContractKey]

	_, err = r.Run(context.Background(), mustParse(t, `
call "inc" {
  hash        = "`+hash+`"
  entry_point = "counter_inc"
}
query "count" {
  path   = ["counter", "count"]
  equals = 1
}`))
	require.NoError(t, err)
}

func TestReport_WriteYAML(t *testing.T) {
	report, err := newRunner(1).Run(context.Background(), mustParse(t, `deploy "install" { session = "counter" }`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteYAML(&buf))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.Passed)
	require.Len(t, decoded.Steps, 1)
	assert.Equal(t, "install", decoded.Steps[0].Name)
	assert.Equal(t, report.Accounts, decoded.Accounts)
}
