package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/taskgrid/internal/app"
	"github.com/vk/taskgrid/internal/handlers"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest writes files into a temporary grid directory and runs
// it with only the given modules registered.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...handlers.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-provided
// context, for cancellation tests.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...handlers.Module) *HarnessResult {
	t.Helper()

	gridDir := WriteGrid(t, files)

	h := handlers.New()
	for _, mod := range modules {
		mod.Register(h)
	}

	cfg, err := app.NewConfig(app.Config{GridPath: gridDir, LogFormat: "text"})
	require.NoError(t, err)
	testApp, out, logs := app.SetupAppTest(t, cfg, app.WithHandlers(h))

	runErr := testApp.Run(ctx)

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// WriteGrid writes every file under a new temporary directory and returns
// the directory. Names may contain subdirectories.
func WriteGrid(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
	return dir
}
