package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctyconv"
	"github.com/vk/taskgrid/internal/dag"
	"github.com/zclconf/go-cty/cty"
)

const (
	statusSucceeded    = "succeeded"
	statusNotCompleted = "not completed"

	// maxResultWidth caps the RESULT column of the table report.
	maxResultWidth = 60
)

// runReport is the JSON form of a run.
type runReport struct {
	Results   map[string]any `json:"results"`
	Succeeded int            `json:"succeeded"`
	Total     int            `json:"total"`
	Error     string         `json:"error,omitempty"`
}

// graphEntry is the JSON form of one task in a graph report.
type graphEntry struct {
	ID         string   `json:"id"`
	Runner     string   `json:"runner,omitempty"`
	DependsOn  []string `json:"depends_on"`
	Dependents []string `json:"dependents"`
	Source     string   `json:"source,omitempty"`
}

// writeRunReport writes the outcome of every task in registration order.
func (a *App) writeRunReport(tasks []string, results dag.Results, runErr error) error {
	native := make(map[string]any, len(results))
	for id, result := range results {
		v, err := nativeResult(result)
		if err != nil {
			return fmt.Errorf("result of task '%s': %w", id, err)
		}
		native[id] = v
	}

	if a.config.Output == OutputJSON {
		report := runReport{Results: native, Succeeded: len(results), Total: len(tasks)}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		return a.writeJSON(report)
	}

	t := a.newTable()
	t.AppendHeader(table.Row{"TASK", "STATUS", "RESULT"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: maxResultWidth}})
	for _, id := range tasks {
		v, ok := native[id]
		if !ok {
			t.AppendRow(table.Row{id, text.FgYellow.Sprint(statusNotCompleted), ""})
			continue
		}
		t.AppendRow(table.Row{id, text.FgGreen.Sprint(statusSucceeded), compactJSON(v)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d %s", len(results), len(tasks), statusSucceeded), ""})
	t.Render()
	return nil
}

// writeGraphReport writes every task with its runner and edges.
func (a *App) writeGraphReport(g *config.Grid, runner *dag.Runner) error {
	entries := make([]graphEntry, 0, len(runner.Tasks()))
	for _, id := range runner.Tasks() {
		entry := graphEntry{
			ID:         id,
			DependsOn:  orEmpty(runner.Dependencies(id)),
			Dependents: orEmpty(runner.Dependents(id)),
		}
		if task := g.Task(id); task != nil {
			entry.Runner = task.Runner
			entry.Source = task.Source
		}
		entries = append(entries, entry)
	}

	if a.config.Output == OutputJSON {
		return a.writeJSON(entries)
	}

	t := a.newTable()
	t.AppendHeader(table.Row{"TASK", "RUNNER", "DEPENDS ON", "DEPENDENTS", "SOURCE"})
	for _, e := range entries {
		runnerName := e.Runner
		if runnerName == "" {
			runnerName = text.FgRed.Sprint("(undefined)")
		}
		t.AppendRow(table.Row{e.ID, runnerName, strings.Join(e.DependsOn, ", "), strings.Join(e.Dependents, ", "), e.Source})
	}
	t.Render()
	return nil
}

// newTable creates a new table with standard styling.
func (a *App) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(a.outW)
	t.SetStyle(table.StyleRounded)
	return t
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// nativeResult converts a task result to plain Go values for encoding.
func nativeResult(result any) (any, error) {
	if v, ok := result.(cty.Value); ok {
		return ctyconv.ToNative(v)
	}
	return result, nil
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
