package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, filename, src string) []*Task {
	t.Helper()
	tasks, err := NewLoader().Parse([]byte(src), filename)
	require.NoError(t, err)
	return tasks
}

func ids(tasks []*Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestParse_HCL(t *testing.T) {
	// --- Arrange ---
	src := `
		task "token" {
			runner = "env_vars"
		}

		task "warmup" {
			runner = "sleep"
			arguments {
				duration = "10ms"
			}
		}

		task "fetch" {
			runner     = "http_request"
			depends_on = ["warmup"]
			arguments {
				url    = "https://example.com/?user=${task.token.all.USER}"
				method = upper("get")
				again  = task.token.all
			}
		}
	`

	// --- Act ---
	tasks := parse(t, "grid/main.hcl", src)

	// --- Assert ---
	require.Equal(t, []string{"token", "warmup", "fetch"}, ids(tasks))

	token := tasks[0]
	assert.Equal(t, "env_vars", token.Runner)
	assert.Empty(t, token.DependsOn)
	assert.Empty(t, token.References)
	assert.NotNil(t, token.Arguments, "missing arguments block yields an empty body")
	assert.Equal(t, "grid/main.hcl", token.Source)

	fetch := tasks[2]
	assert.Equal(t, []string{"warmup"}, fetch.DependsOn)
	assert.Equal(t, []string{"token"}, fetch.References)
	assert.Equal(t, []string{"warmup", "token"}, fetch.Dependencies())

	attrs, diags := fetch.Arguments.JustAttributes()
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Len(t, attrs, 3)
}

func TestParse_DependsOnForms(t *testing.T) {
	tests := []struct {
		name      string
		dependsOn string
		want      []string
	}{
		{"single string", `"a"`, []string{"a"}},
		{"list of strings", `["a", "b"]`, []string{"a", "b"}},
		{"list of references", `[task.a, task.b]`, []string{"a", "b"}},
		{"single reference", `task.a`, []string{"a"}},
		{"mixed list", `[task.a, "b"]`, []string{"a", "b"}},
		{"prefixed string", `["task.a"]`, []string{"a"}},
		{"empty entries are dropped", `["", "a", ""]`, []string{"a"}},
		{"empty list", `[]`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `task "x" {
				runner     = "print"
				depends_on = ` + tt.dependsOn + `
			}`
			tasks := parse(t, "main.hcl", src)
			require.Len(t, tasks, 1)
			assert.Equal(t, tt.want, tasks[0].DependsOn)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     `task "a" {`,
			wantErr: "failed to parse grid file main.hcl",
		},
		{
			name:    "missing runner",
			src:     `task "a" {}`,
			wantErr: `Missing required argument`,
		},
		{
			name: "invalid depends_on",
			src: `task "a" {
				runner     = "print"
				depends_on = [1]
			}`,
			wantErr: "Invalid depends_on value",
		},
		{
			name: "depends_on reference outside task",
			src: `task "a" {
				runner     = "print"
				depends_on = [var.b]
			}`,
			wantErr: "Invalid depends_on value",
		},
		{
			name: "nested block inside arguments",
			src: `task "a" {
				runner = "print"
				arguments {
					nested {}
				}
			}`,
			wantErr: "error parsing task 'a'",
		},
		{
			name:    "unknown top level block",
			src:     `step "print" "a" {}`,
			wantErr: "failed to decode grid file main.hcl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Parse([]byte(tt.src), "main.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var diags hcl.Diagnostics
			assert.ErrorAs(t, err, &diags)
		})
	}
}

func TestParse_JSON(t *testing.T) {
	src := `{
		"task": {
			"token": {"runner": "env_vars"},
			"fetch": {
				"runner": "http_request",
				"depends_on": "task.token",
				"arguments": {
					"url": "https://example.com/?user=${task.token.all.USER}",
					"headers": {"accept": "text/plain"}
				}
			}
		}
	}`

	tasks := parse(t, "main.hcl.json", src)

	require.Equal(t, []string{"token", "fetch"}, ids(tasks))
	assert.Equal(t, []string{"token"}, tasks[1].DependsOn)
	assert.Equal(t, []string{"token"}, tasks[1].References)
	assert.Equal(t, []string{"token"}, tasks[1].Dependencies())
}

func TestParse_YAML(t *testing.T) {
	t.Run("tasks keep declaration order", func(t *testing.T) {
		src := `
tasks:
  - id: zeta
    runner: print
    depends_on: alpha
    arguments:
      message: "hello ${upper(task.alpha.name)}"
      count: 3
  - id: alpha
    runner: print
    arguments:
      name: world
  - id: mid
    runner: print
    depends_on: [zeta, task.alpha]
`
		tasks := parse(t, "grid.yaml", src)

		require.Equal(t, []string{"zeta", "alpha", "mid"}, ids(tasks))
		assert.Equal(t, []string{"alpha"}, tasks[0].DependsOn)
		assert.Equal(t, []string{"alpha"}, tasks[0].References)
		assert.Equal(t, []string{"zeta", "alpha"}, tasks[2].DependsOn)
		assert.Equal(t, "grid.yaml", tasks[0].Source)
	})

	t.Run("empty document", func(t *testing.T) {
		assert.Empty(t, parse(t, "empty.yml", ""))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := NewLoader().Parse([]byte("tasks:\n  - runner: print\n"), "bad.yaml")
		require.EqualError(t, err, "failed to parse YAML file bad.yaml: task #1: 'id' is required")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := NewLoader().Parse([]byte("tasks:\n  - id: a\n    runnr: print\n"), "bad.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "runnr")
	})

	t.Run("non-string mapping keys", func(t *testing.T) {
		src := `
tasks:
  - id: a
    runner: print
    arguments:
      codes:
        200: ok
        404: [missing, {true: gone}]
`
		tasks := parse(t, "grid.yaml", src)

		require.Len(t, tasks, 1)
		attrs, diags := tasks[0].Arguments.JustAttributes()
		require.False(t, diags.HasErrors(), diags.Error())
		codes, diags := attrs["codes"].Expr.Value(nil)
		require.False(t, diags.HasErrors(), diags.Error())
		assert.Equal(t, "ok", codes.GetAttr("200").AsString())
		notFound := codes.GetAttr("404").AsValueSlice()
		require.Len(t, notFound, 2)
		assert.Equal(t, "gone", notFound[1].GetAttr("true").AsString())
	})

	t.Run("missing runner", func(t *testing.T) {
		_, err := NewLoader().Parse([]byte("tasks:\n  - id: a\n"), "bad.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "runner")
	})
}

func TestLoad(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	files := map[string]string{
		"a.hcl":             `task "one" { runner = "print" }`,
		"nested/b.yaml":     "tasks:\n  - id: two\n    runner: print\n    depends_on: one\n",
		"nested/c.hcl.json": `{"task": {"three": {"runner": "print", "depends_on": ["two"]}}}`,
		"notes.txt":         "ignored",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	t.Run("directory", func(t *testing.T) {
		grid, err := Load(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, ids(grid.Tasks))
		require.NotNil(t, grid.Task("three"))
		assert.Equal(t, []string{"two"}, grid.Task("three").DependsOn)
		assert.Nil(t, grid.Task("missing"))
	})

	t.Run("single file", func(t *testing.T) {
		grid, err := Load(context.Background(), filepath.Join(root, "a.hcl"))
		require.NoError(t, err)
		assert.Equal(t, []string{"one"}, ids(grid.Tasks))
	})

	t.Run("empty directory", func(t *testing.T) {
		grid, err := Load(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, grid.Tasks)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Load(context.Background(), filepath.Join(root, "nope"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestTask_Dependencies(t *testing.T) {
	task := &Task{DependsOn: []string{"a", "b"}, References: []string{"b", "c", "a"}}
	assert.Equal(t, []string{"a", "b", "c"}, task.Dependencies())
	assert.Empty(t, (&Task{}).Dependencies())
}
