package grid

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/taskgrid/internal/ctyconv"
	"github.com/vk/taskgrid/internal/dag"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions is the set of functions available to argument expressions.
var functions = map[string]function.Function{
	"upper":      stdlib.UpperFunc,
	"lower":      stdlib.LowerFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"join":       stdlib.JoinFunc,
	"split":      stdlib.SplitFunc,
	"format":     stdlib.FormatFunc,
	"length":     stdlib.LengthFunc,
	"concat":     stdlib.ConcatFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"jsondecode": stdlib.JSONDecodeFunc,
}

// newEvalContext exposes the dependency results as task.<id>.
func newEvalContext(deps dag.Results) (*hcl.EvalContext, error) {
	results := make(map[string]cty.Value, len(deps))
	for id, result := range deps {
		v, err := toValue(result)
		if err != nil {
			return nil, fmt.Errorf("result of dependency '%s': %w", id, err)
		}
		results[id] = v
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"task": cty.ObjectVal(results),
		},
		Functions: functions,
	}, nil
}

// toValue converts a task result to a cty.Value. Results produced by handlers
// already are one; results of tasks registered directly with the dag may be
// plain Go values.
func toValue(result any) (cty.Value, error) {
	if v, ok := result.(cty.Value); ok {
		if v == cty.NilVal {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return v, nil
	}
	return ctyconv.FromNative(result)
}

// decodeArguments evaluates body. With a nil newInput the result is a cty
// object of every attribute; otherwise body is decoded into the struct
// newInput returns.
func decodeArguments(body hcl.Body, evalCtx *hcl.EvalContext, newInput func() any) (any, error) {
	if newInput == nil {
		attrs, diags := body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		vals := make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			v, valDiags := attr.Expr.Value(evalCtx)
			diags = append(diags, valDiags...)
			vals[name] = v
		}
		if diags.HasErrors() {
			return nil, diags
		}
		return cty.ObjectVal(vals), nil
	}

	input := newInput()
	if diags := gohcl.DecodeBody(body, evalCtx, input); diags.HasErrors() {
		return nil, diags
	}
	return input, nil
}
