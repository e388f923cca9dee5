// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file translates YAML grid files into HCL's JSON syntax.
//
//	tasks:
//	  - id: fetch
//	    runner: http_request
//	    depends_on: [warmup]
//	    arguments:
//	      url: "https://example.com/${task.token.all.USER}"
//
// becomes {"task": [{"fetch": {"runner": ..., "depends_on": ..., "arguments": {...}}}]}.
// Tasks are emitted as an array so declaration order survives the round trip.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlGridFile struct {
	Tasks []yamlTask `yaml:"tasks"`
}

type yamlTask struct {
	ID        string         `yaml:"id"`
	Runner    string         `yaml:"runner"`
	DependsOn any            `yaml:"depends_on"`
	Arguments map[string]any `yaml:"arguments"`
}

// yamlToHCLJSON re-encodes a YAML grid document as HCL JSON syntax.
func yamlToHCLJSON(src []byte) ([]byte, error) {
	var doc yamlGridFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		// An empty document decodes to io.EOF; treat it as an empty grid.
		if errors.Is(err, io.EOF) {
			return []byte(`{}`), nil
		}
		return nil, err
	}

	blocks := make([]map[string]any, 0, len(doc.Tasks))
	for i, t := range doc.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task #%d: 'id' is required", i+1)
		}
		body := map[string]any{}
		if t.Runner != "" {
			body["runner"] = t.Runner
		}
		if t.DependsOn != nil {
			body["depends_on"] = stringKeys(t.DependsOn)
		}
		if len(t.Arguments) > 0 {
			body["arguments"] = stringKeys(t.Arguments)
		}
		blocks = append(blocks, map[string]any{t.ID: body})
	}

	if len(blocks) == 0 {
		return []byte(`{}`), nil
	}
	return json.Marshal(map[string]any{taskRoot: blocks})
}

// stringKeys rewrites mappings decoded with non-string keys (200: ok,
// true: yes) into string-keyed maps that encoding/json accepts. Keys are
// rendered with fmt.Sprint, matching how HCL object keys are always strings.
func stringKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = stringKeys(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = stringKeys(e)
		}
		return out
	default:
		return v
	}
}
