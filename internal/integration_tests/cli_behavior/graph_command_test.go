package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgrid/internal/cli"
	"github.com/vk/taskgrid/internal/testutil"
)

// Test for: graph prints the dependency structure and runs nothing.
func TestCLI_GraphCommand(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	gridDir := testutil.WriteGrid(t, map[string]string{
		"main.hcl": `
			task "build" {
				runner = "fail"
			}
			task "deploy" {
				runner     = "fail"
				depends_on = "build"
			}
		`,
	})
	var out, errOut bytes.Buffer

	// --- Act ---
	err := cli.Execute(context.Background(), []string{"graph", "--output", "json", gridDir}, &out, &errOut)

	// --- Assert ---
	require.NoError(t, err, "graph must not execute the failing tasks")
	var entries []struct {
		ID         string   `json:"id"`
		Runner     string   `json:"runner"`
		DependsOn  []string `json:"depends_on"`
		Dependents []string `json:"dependents"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "build", entries[0].ID)
	assert.Equal(t, []string{"deploy"}, entries[0].Dependents)
	assert.Equal(t, []string{"build"}, entries[1].DependsOn)
	assert.Equal(t, "fail", entries[1].Runner)
}

// Test for: run exits non-zero and still reports partial results.
func TestCLI_RunCommand_ReportsFailure(t *testing.T) {
	t.Parallel()

	gridDir := testutil.WriteGrid(t, map[string]string{
		"main.yaml": `
tasks:
  - id: ok
    runner: sleep
    arguments:
      duration: 1ms
  - id: broken
    runner: fail
    depends_on: ok
    arguments:
      message: boom
`,
	})
	var out, errOut bytes.Buffer

	err := cli.Execute(context.Background(), []string{"run", gridDir}, &out, &errOut)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitCodeError, exitErr.Code)
	assert.Equal(t, "execution failed: boom", exitErr.Message)
	assert.Contains(t, out.String(), "1/2 SUCCEEDED")
	assert.Contains(t, errOut.String(), "Task failed; dependents will not run.")
}
