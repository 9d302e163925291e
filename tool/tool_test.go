package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToolContext(agentName string) (*core.ToolContext, chan core.Event) {
	emit := make(chan core.Event, 32)
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{Name: agentName, Type: "test"}, "hello", 10, emit, logging.NoOpLogger{})
	return core.NewToolContext(rc, "fc-1"), emit
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	tc, _ := newTestToolContext("Agent")
	result, err := sumTool.Call(tc, map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
	assert.Equal(t, KindFunction, sumTool.Kind())
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	tc, _ := newTestToolContext("Agent")
	_, err := tTool.Call(tc, map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	tc, _ := newTestToolContext("Agent")
	_, err := execTool.Call(tc, map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	custom := NewToolError("custom", "nope", "CUSTOM")
	execTool := NewFunctionTool("custom", "Custom", map[string]any{"type": "object"}, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, fmt.Errorf("wrapped: %w", custom)
	})

	tc, _ := newTestToolContext("Agent")
	_, err := execTool.Call(tc, map[string]any{})
	assert.Same(t, custom, err)
}

func TestNewTaskTool(t *testing.T) {
	echo := NewTaskTool("handle_echo_task", "Echo", func(task string) string {
		return "echo: " + task
	})

	params := echo.Parameters()
	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "task")
	assert.Contains(t, params["required"], "task")

	tc, _ := newTestToolContext("Agent")

	out, err := echo.Call(tc, map[string]any{"task": "build a navbar"})
	require.NoError(t, err)
	assert.Equal(t, "echo: build a navbar", out)

	_, err = echo.Call(tc, map[string]any{"task": 42.0})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestNewTypedTool(t *testing.T) {
	type scaleArgs struct {
		Value  float64 `json:"value"`
		Factor int     `json:"factor,omitempty"`
	}
	scale := NewTypedTool("scale", "Scale a value", func(_ *core.ToolContext, args scaleArgs) (any, error) {
		if args.Factor == 0 {
			args.Factor = 1
		}
		return args.Value * float64(args.Factor), nil
	})

	assert.Equal(t, []any{"value"}, scale.Parameters()["required"])

	tc, _ := newTestToolContext("Agent")
	out, err := scale.Call(tc, map[string]any{"value": 1.5, "factor": 2.0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)

	_, err = scale.Call(tc, map[string]any{"value": 1.5, "factor": 2.5})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

// -------------------- AgentTool Tests --------------------

type fakeAgent struct {
	name  string
	reply func(input string) string
	err   error
	seen  *core.RunContext
}

func (a *fakeAgent) Name() string        { return a.name }
func (a *fakeAgent) Description() string { return "fake " + a.name }

func (a *fakeAgent) Run(rc *core.RunContext) error {
	a.seen = rc
	if a.err != nil {
		return a.err
	}
	return rc.EmitEvent(core.NewMessageEvent(rc.RunID, a.name, a.reply(rc.Input)))
}

func TestAgentTool_RunsNestedAgent(t *testing.T) {
	backend := &fakeAgent{name: "Backend_Developer_Agent", reply: func(in string) string { return "answer to " + in }}
	at := NewAgentTool(backend, "Backend_Developer", "You are expert in backend development")

	assert.Equal(t, KindAgent, at.Kind())
	assert.Equal(t, "Backend_Developer", at.Name())
	assert.Same(t, backend, at.Agent())

	tc, emit := newTestToolContext("Agentic_AI_Agent")
	parent := tc.RunContext()
	before := parent.Transcript.Len()

	out, err := at.Call(tc, map[string]any{"input": "JWT auth"})
	require.NoError(t, err)
	assert.Equal(t, "answer to JWT auth", out)

	require.NotNil(t, backend.seen)
	assert.Equal(t, "Agentic_AI_Agent.Backend_Developer", backend.seen.Branch)
	assert.Equal(t, 1, backend.seen.Depth)
	assert.Same(t, parent.Limiter, backend.seen.Limiter)
	assert.Equal(t, before, parent.Transcript.Len(), "nested run must not write to the parent transcript")

	ev := <-emit
	assert.Equal(t, "Agentic_AI_Agent.Backend_Developer", ev.Branch)
}

func TestAgentTool_NestedBranch(t *testing.T) {
	inner := &fakeAgent{name: "inner", reply: func(string) string { return "ok" }}
	at := NewAgentTool(inner, "Inner", "")
	assert.Equal(t, "fake inner", at.Description())

	tc, _ := newTestToolContext("outer")
	nested := tc.RunContext().NewChildContext(core.AgentInfo{Name: "mid"}, "x", "outer.Mid")
	_, err := at.Call(core.NewToolContext(nested, "fc-2"), map[string]any{"input": "y"})
	require.NoError(t, err)
	assert.Equal(t, "outer.Mid.Inner", inner.seen.Branch)
}

func TestAgentTool_Errors(t *testing.T) {
	tc, _ := newTestToolContext("Agentic_AI_Agent")

	t.Run("missing input", func(t *testing.T) {
		at := NewAgentTool(&fakeAgent{name: "a"}, "A", "")
		_, err := at.Call(tc, map[string]any{})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, CodeValidation, toolErr.Code)
	})

	t.Run("agent failure becomes tool error", func(t *testing.T) {
		at := NewAgentTool(&fakeAgent{name: "a", err: errors.New("model down")}, "A", "")
		_, err := at.Call(tc, map[string]any{"input": "x"})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, CodeExecution, toolErr.Code)
	})

	t.Run("limit error is fatal", func(t *testing.T) {
		limitErr := fmt.Errorf("run: %w", core.ErrModelCallLimit)
		at := NewAgentTool(&fakeAgent{name: "a", err: limitErr}, "A", "")
		_, err := at.Call(tc, map[string]any{"input": "x"})
		require.ErrorIs(t, err, core.ErrModelCallLimit)
		assert.True(t, IsFatal(err))
	})
}

// -------------------- Transfer Tool Tests --------------------

func TestTransferToAgentTool(t *testing.T) {
	tr := NewTransferToAgentTool([]TransferTarget{
		{Name: "Web Development Agent", Description: "Handles websites."},
		{Name: "App Development Agent", Description: "Handles apps."},
	})

	assert.Equal(t, TransferToAgentToolName, tr.Name())
	assert.Equal(t, KindTransfer, tr.Kind())
	assert.Contains(t, tr.Description(), "Web Development Agent: Handles websites.")

	props := tr.Parameters()["properties"].(map[string]any)
	agentProp := props["agent"].(map[string]any)
	assert.Equal(t, []string{"Web Development Agent", "App Development Agent"}, agentProp["enum"])

	tc, _ := newTestToolContext("Agent")
	res, err := tr.Call(tc, map[string]any{"agent": "App Development Agent"})
	require.NoError(t, err)
	assert.Equal(t, true, res.(map[string]any)["transferred"])
	require.NotNil(t, tc.Actions().TransferToAgent)
	assert.Equal(t, "App Development Agent", *tc.Actions().TransferToAgent)
}

func TestTransferToAgentTool_Rejects(t *testing.T) {
	tr := NewTransferToAgentTool([]TransferTarget{{Name: "Agentic_AI_Agent"}})
	tc, _ := newTestToolContext("Agent")

	_, err := tr.Call(tc, map[string]any{"agent": "Backend_Developer_Agent"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeTransferRejected, toolErr.Code)
	assert.Nil(t, tc.Actions().TransferToAgent)

	_, err = tr.Call(tc, map[string]any{})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")

	plain := &ToolError{Tool: "demo", Message: "x"}
	assert.Equal(t, "tool error in demo: x", plain.Error())
}

func TestNames(t *testing.T) {
	tools := []Tool{
		NewTaskTool("a", "", func(s string) string { return s }),
		NewTransferToAgentTool(nil),
	}
	assert.Equal(t, []string{"a", TransferToAgentToolName}, Names(tools))
	assert.Equal(t, "transfer", KindTransfer.String())
}
