// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package config loads grid files into a format-agnostic model of tasks.
//
// A grid is a set of `task` blocks spread across one or more files. Each task
// names the runner that executes it, the tasks it depends on and an
// `arguments` body that is evaluated only when the task runs:
//
//	task "token" {
//	  runner = "env_vars"
//	}
//
//	task "fetch" {
//	  runner     = "http_request"
//	  depends_on = ["warmup"]
//	  arguments {
//	    url = "https://example.com/?user=${task.token.all.USER}"
//	  }
//	}
//
// Three file formats are accepted. Native HCL (`.hcl`) and HCL's JSON syntax
// (`.hcl.json`) are parsed by hclparse directly. YAML files (`.yaml`, `.yml`)
// are decoded and re-encoded into the JSON syntax, so the same `${...}`
// templates and the same decoder apply to all three.
//
// # Dependencies
//
// Dependencies come from two places. `depends_on` lists them explicitly, as a
// single string, a list of strings or a list of `task.<id>` references. Every
// `task.<id>` traversal inside `arguments` adds an implicit dependency on
// `<id>`, since the argument cannot be evaluated before that task's result
// exists.
//
// The loader does not check that referenced tasks exist or that ids are
// unique across files. Those checks belong to the dependency graph, which
// reports them with precise messages when the grid is built.
package config
