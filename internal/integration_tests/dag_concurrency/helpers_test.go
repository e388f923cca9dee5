package integration_tests

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/taskgrid/internal/testutil"
)

const sleep = 50 * time.Millisecond

// sleeperTask renders a sleeper task that depends on deps.
func sleeperTask(id string, deps ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "task %q {\n  runner = \"sleeper\"\n", id)
	if len(deps) > 0 {
		fmt.Fprintf(&b, "  depends_on = [%s]\n", quoteAll(deps))
	}
	fmt.Fprintf(&b, "  arguments {\n    id = %q\n  }\n}\n", id)
	return b.String()
}

func quoteAll(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return strings.Join(quoted, ", ")
}

// requireRecords returns the execution record of every id, failing if one
// of the tasks never ran.
func requireRecords(t *testing.T, m *testutil.MockSleeperModule, ids ...string) map[string]*testutil.ExecutionRecord {
	t.Helper()
	records := make(map[string]*testutil.ExecutionRecord, len(ids))
	for _, id := range ids {
		rec := m.Record(id)
		require.NotNil(t, rec, "task %s did not run", id)
		records[id] = rec
	}
	return records
}

// overlaps reports whether two executions were running at the same time.
func overlaps(a, b *testutil.ExecutionRecord) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
