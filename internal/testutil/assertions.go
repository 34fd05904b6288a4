package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertStepRan checks the log output within a HarnessResult to confirm that a
// specific step was started.
func AssertStepRan(t *testing.T, result *HarnessResult, kind, name string) {
	t.Helper()

	expectedLogSubstring := fmt.Sprintf("kind=%s name=%s", kind, name)
	require.True(t,
		strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected log output for step '%s.%s' was not found in logs", kind, name,
	)
}

// AssertStepNotRan is the inverse of AssertStepRan.
func AssertStepNotRan(t *testing.T, result *HarnessResult, kind, name string) {
	t.Helper()

	unexpected := fmt.Sprintf("msg=\"Running step.\" kind=%s name=%s", kind, name)
	require.False(t,
		strings.Contains(result.LogOutput, unexpected),
		"step '%s.%s' ran but should not have", kind, name,
	)
}
