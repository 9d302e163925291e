package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/internal/util"
)

// FunctionFunc is the untyped implementation behind a FunctionTool.
type FunctionFunc func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a Go function as a tool. Arguments are checked
// against the declared schema before the function runs; a mismatch is a
// VALIDATION_ERROR, any other failure an EXECUTION_ERROR unless the function
// already returned a *ToolError. FunctionTool is immutable and safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          FunctionFunc
}

// NewFunctionTool builds a FunctionTool from an explicit JSON schema.
func NewFunctionTool(name, description string, parameters map[string]any, fn FunctionFunc) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// NewTypedTool derives the schema from T and hands the function decoded
// arguments:
//
//	type LookupArgs struct {
//	  Query string `json:"query" jsonschema:"description=What to look up"`
//	}
//
//	lookup := tool.NewTypedTool("lookup", "Look something up",
//	  func(tc *core.ToolContext, args LookupArgs) (any, error) {
//	    return search(tc.Context(), args.Query)
//	  })
func NewTypedTool[T any](name, description string, fn func(toolCtx *core.ToolContext, args T) (any, error)) *FunctionTool {
	return NewFunctionTool(name, description, util.SchemaFor[T](), func(tc *core.ToolContext, raw map[string]any) (any, error) {
		args, err := util.Decode[T](raw)
		if err != nil {
			return nil, &ToolError{Tool: name, Message: fmt.Sprintf("decode arguments: %v", err), Code: CodeValidation}
		}
		return fn(tc, args)
	})
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Kind returns KindFunction.
func (t *FunctionTool) Kind() Kind { return KindFunction }

// Call implements Tool.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		toolCtx.LogWarn("tool.args.invalid", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	start := time.Now()
	result, err := t.fn(toolCtx, args)
	toolCtx.LogDebug("tool.func.return", "tool", t.name, "duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	if err == nil {
		return result, nil
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return nil, toolErr
	}
	return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
}

// TaskArgs is the argument shape of single-field task tools.
type TaskArgs struct {
	Task string `json:"task" jsonschema:"description=The task to work on"`
}

// NewTaskTool wraps a total func(task) string with a single required task
// argument.
func NewTaskTool(name, description string, fn func(task string) string) *FunctionTool {
	return NewTypedTool(name, description, func(_ *core.ToolContext, args TaskArgs) (any, error) {
		return fn(args.Task), nil
	})
}
