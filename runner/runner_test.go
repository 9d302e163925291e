package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/devcrew/agent"
	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcAgent struct {
	name string
	run  func(rc *core.RunContext) error
}

func (a *funcAgent) Name() string                  { return a.name }
func (a *funcAgent) Description() string           { return a.name }
func (a *funcAgent) Run(rc *core.RunContext) error { return a.run(rc) }

func TestRunSync_Success(t *testing.T) {
	r := New(agent.NewModelAgent("Agent", model.NewEchoModel()))

	res, err := r.RunSync(context.Background(), "How do I create a REST API in Node.js?")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: How do I create a REST API in Node.js?", res.FinalOutput)
	assert.Equal(t, "Agent", res.LastAgent)
	assert.Equal(t, 1, res.ModelCalls)
	assert.NotEmpty(t, res.RunID)
	assert.Zero(t, r.ActiveRuns())
}

func TestRunSync_HandoffReportsTerminalAgent(t *testing.T) {
	llm := model.NewScriptedModel(
		model.ToolCallResponse(core.FunctionCall{ID: "t", Name: tool.TransferToAgentToolName, Arguments: `{"agent":"Web Development Agent"}`}),
		model.TextResponse("Use flex and md:hidden."),
	)
	web := agent.NewModelAgent("Web Development Agent", llm)
	root := agent.NewModelAgent("Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Handoffs = []core.Agent{web}
	})

	res, err := New(root).RunSync(context.Background(), "How to create a responsive navbar using Tailwind CSS?")
	require.NoError(t, err)
	assert.Equal(t, "Use flex and md:hidden.", res.FinalOutput)
	assert.Equal(t, "Web Development Agent", res.LastAgent)
	assert.Equal(t, 2, res.ModelCalls)
}

func TestRunSync_NestedFinalIsNotTheResult(t *testing.T) {
	llm := model.NewScriptedModel(
		model.ToolCallResponse(core.FunctionCall{ID: "a", Name: "DevOps_Expert", Arguments: `{"input":"docker"}`}),
		model.TextResponse("nested answer"),
		model.TextResponse("top-level answer"),
	)
	devops := agent.NewModelAgent("DevOps_Developer_Agent", llm)
	agentic := agent.NewModelAgent("Agentic_AI_Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = []tool.Tool{tool.NewAgentTool(devops, "DevOps_Expert", "You are a DevOps expert")}
	})

	res, err := New(agentic).RunSync(context.Background(), "How to deploy a web app using Docker and Kubernetes?")
	require.NoError(t, err)
	assert.Equal(t, "top-level answer", res.FinalOutput)
	assert.Equal(t, "Agentic_AI_Agent", res.LastAgent)
	assert.Equal(t, 3, res.ModelCalls)
}

func TestRunSync_EmptyInput(t *testing.T) {
	called := false
	r := New(&funcAgent{name: "a", run: func(*core.RunContext) error { called = true; return nil }})

	_, err := r.RunSync(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)
	assert.False(t, called)
}

func TestRunSync_NoFinalOutput(t *testing.T) {
	r := New(&funcAgent{name: "silent", run: func(*core.RunContext) error { return nil }})

	_, err := r.RunSync(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNoFinalOutput)
}

func TestRunSync_AgentError(t *testing.T) {
	boom := errors.New("boom")
	r := New(&funcAgent{name: "a", run: func(*core.RunContext) error { return boom }})

	_, err := r.RunSync(context.Background(), "hi")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "agent execution failed")
}

func TestRunSync_ModelCallLimit(t *testing.T) {
	llm := model.NewScriptedModel(
		model.ToolCallResponse(core.FunctionCall{ID: "c", Name: "handle_backend_task", Arguments: `{"task":"api"}`}),
		model.TextResponse("unreachable"),
	)
	a := agent.NewModelAgent("Backend_Developer_Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = []tool.Tool{tool.NewTaskTool("handle_backend_task", "backend", func(s string) string { return s })}
	})

	r := New(a, func(o *Options) { o.MaxModelCalls = 1 })
	_, err := r.RunSync(context.Background(), "hi")
	require.ErrorIs(t, err, core.ErrModelCallLimit)
}

func TestRun_StreamsEvents(t *testing.T) {
	r := New(agent.NewModelAgent("Agent", model.NewEchoModel()))

	runID, events, errs, err := r.Run(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	var got []core.Event
	for ev := range events {
		got = append(got, ev)
	}
	require.NoError(t, <-errs)

	require.Len(t, got, 2)
	assert.Equal(t, core.RoleUser, got[0].Author)
	assert.Equal(t, runID, got[1].RunID)
	assert.True(t, got[1].IsFinalResponse())
}

func TestCancel(t *testing.T) {
	started := make(chan struct{})
	r := New(&funcAgent{name: "blocking", run: func(rc *core.RunContext) error {
		close(started)
		<-rc.Done()
		return rc.Err()
	}})

	require.ErrorIs(t, r.Cancel("missing"), ErrRunNotFound)

	runID, events, errs, err := r.Run(context.Background(), "hi")
	require.NoError(t, err)

	<-started
	require.NoError(t, r.Cancel(runID))

	for range events {
	}
	require.ErrorIs(t, <-errs, context.Canceled)

	assert.Eventually(t, func() bool { return r.ActiveRuns() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimeout(t *testing.T) {
	r := New(&funcAgent{name: "blocking", run: func(rc *core.RunContext) error {
		<-rc.Done()
		return rc.Err()
	}}, func(o *Options) { o.Timeout = 20 * time.Millisecond })

	_, err := r.RunSync(context.Background(), "hi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
