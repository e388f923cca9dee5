// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file discovers grid files on disk and dispatches each one to the parser
// for its format.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/fsutil"
)

// File extensions recognised by Load.
const (
	ExtHCL     = ".hcl"
	ExtHCLJSON = ".hcl.json"
	ExtYAML    = ".yaml"
	ExtYML     = ".yml"
)

// Extensions lists every grid file extension Load looks for.
var Extensions = []string{ExtHCL, ExtHCLJSON, ExtYAML, ExtYML}

// Loader parses grid files. A Loader may be reused; it keeps the parsed files
// so that diagnostics can be rendered with source snippets.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a Loader with an empty file cache.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files returns every file parsed so far, keyed by name. It is meant for
// hcl.NewDiagnosticTextWriter.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// Load finds every grid file under path (a file or a directory, searched
// recursively) and merges their tasks into one Grid.
func (l *Loader) Load(ctx context.Context, path string) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grid from path.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, Extensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to find grid files in %s: %w", path, err)
	}

	grid := NewGrid()
	if len(files) == 0 {
		logger.Warn("No grid files found in path, returning empty grid.", "path", path)
		return grid, nil
	}

	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read grid file %s: %w", file, err)
		}
		tasks, err := l.Parse(src, file)
		if err != nil {
			return nil, err
		}
		logger.Debug("Parsed grid file.", "file", file, "tasks", len(tasks))
		grid.Tasks = append(grid.Tasks, tasks...)
	}

	logger.Debug("Grid loaded.", "files", len(files), "tasks", len(grid.Tasks))
	return grid, nil
}

// Parse parses one grid document. The format is chosen from filename's
// extension; anything that is not JSON or YAML is treated as native HCL.
func (l *Loader) Parse(src []byte, filename string) ([]*Task, error) {
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	switch {
	case fsutil.HasExtension(filename, ExtHCLJSON):
		file, diags = l.parser.ParseJSON(src, filename)
	case fsutil.HasExtension(filename, ExtYAML, ExtYML):
		converted, err := yamlToHCLJSON(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
		}
		file, diags = l.parser.ParseJSON(converted, filename)
	default:
		file, diags = l.parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse grid file %s: %w", filename, diags)
	}

	return decodeTasks(file.Body, filename)
}

// decodeTasks decodes every task block in body.
func decodeTasks(body hcl.Body, filename string) ([]*Task, error) {
	var parsedFile hclGridFile
	if diags := gohcl.DecodeBody(body, nil, &parsedFile); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode grid file %s: %w", filename, diags)
	}

	tasks := make([]*Task, 0, len(parsedFile.Tasks))
	for _, parsed := range parsedFile.Tasks {
		task, diags := newTask(parsed, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("error parsing task '%s' in file %s: %w", parsed.ID, filename, diags)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Load is a convenience wrapper around NewLoader().Load.
func Load(ctx context.Context, path string) (*Grid, error) {
	return NewLoader().Load(ctx, path)
}
