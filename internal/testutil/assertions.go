package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertTaskRan checks the debug log of a run for the success line of a task.
func AssertTaskRan(t *testing.T, result *HarnessResult, id string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, taskSucceededLine(id)),
		"expected log output for task '%s' was not found in logs", id,
	)
}

// AssertTaskNotRan is the inverse of AssertTaskRan.
func AssertTaskNotRan(t *testing.T, result *HarnessResult, id string) {
	t.Helper()
	require.False(t,
		strings.Contains(result.LogOutput, taskSucceededLine(id)),
		"task '%s' was not expected to succeed", id,
	)
}

func taskSucceededLine(id string) string {
	return fmt.Sprintf(`msg="Task succeeded." task=%s`, id)
}
