// Package testutil holds the integration test harness shared by the
// command and app tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/app"
	"github.com/vk/countergrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// Dir is the temporary directory the scenario files were written to.
	Dir string
}

// Options adjusts the configuration an integration test runs with.
type Options struct {
	// Configure, when set, edits the config before the app is built.
	Configure func(dir string, cfg *app.Config)
	Modules   []registry.Module
}

// WriteFiles writes files (relative path to content) under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// RunIntegrationTest writes files into a fresh scenario directory and runs
// the app over it with debug logging captured.
func RunIntegrationTest(t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	scenarioDir := filepath.Join(dir, "scenario")
	require.NoError(t, os.MkdirAll(scenarioDir, 0o755))
	WriteFiles(t, scenarioDir, files)

	cfg := app.Config{
		ScenarioPath: scenarioDir,
		WorkerCount:  4,
		LogFormat:    "text",
		LogLevel:     "debug",
	}
	if opts.Configure != nil {
		opts.Configure(dir, &cfg)
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(logBuffer, validated, opts.Modules...)
	runErr := testApp.Run(context.Background())

	t.Cleanup(func() {
		if os.Getenv("COUNTERGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Dir:       dir,
	}
}
