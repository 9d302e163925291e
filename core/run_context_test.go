package core

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/devcrew/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunContext(emit chan Event) *RunContext {
	return NewRunContext(context.Background(), "run-1", AgentInfo{Name: "root", Type: "test"}, "hello", 5, emit, logging.NoOpLogger{})
}

func TestNewRunContext_SeedsTranscript(t *testing.T) {
	rc := newTestRunContext(nil)

	contents := rc.Transcript.Contents(0)
	require.Len(t, contents, 1)
	assert.Equal(t, RoleUser, contents[0].Role)
	assert.Equal(t, "hello", contents[0].Text())
	assert.False(t, rc.IsNested())
}

func TestRunContext_EmitEvent(t *testing.T) {
	emit := make(chan Event, 2)
	rc := newTestRunContext(emit)

	require.NoError(t, rc.EmitEvent(NewMessageEvent("", "root", "answer")))

	ev := <-emit
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, 2, rc.Transcript.Len())

	partial := NewMessageEvent("", "root", "ans")
	partial.Partial = true
	require.NoError(t, rc.EmitEvent(partial))
	<-emit
	assert.Equal(t, 2, rc.Transcript.Len(), "partial events are not recorded")
}

func TestRunContext_EmitEventCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := NewRunContext(ctx, "run-1", AgentInfo{Name: "root"}, "hi", 0, make(chan Event), nil)
	err := rc.EmitEvent(NewMessageEvent("", "root", "x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunContext_ForAgentSharesTranscript(t *testing.T) {
	rc := newTestRunContext(nil)
	next := rc.ForAgent(AgentInfo{Name: "child"})

	require.NoError(t, next.EmitEvent(NewMessageEvent("", "child", "from child")))
	assert.Equal(t, "root", rc.Agent.Name)
	assert.Equal(t, "child", next.Agent.Name)
	assert.Same(t, rc.Transcript, next.Transcript)
	assert.Same(t, rc.Limiter, next.Limiter)
}

func TestRunContext_NewChildContext(t *testing.T) {
	emit := make(chan Event, 1)
	rc := newTestRunContext(emit)
	child := rc.NewChildContext(AgentInfo{Name: "leaf"}, "sub task", "root.leaf")

	assert.True(t, child.IsNested())
	assert.Equal(t, 1, child.Depth)
	assert.NotSame(t, rc.Transcript, child.Transcript)
	assert.Same(t, rc.Limiter, child.Limiter)
	assert.Equal(t, "sub task", child.Transcript.Contents(0)[0].Text())

	require.NoError(t, child.EmitEvent(NewMessageEvent("", "leaf", "x")))
	ev := <-emit
	assert.Equal(t, "root.leaf", ev.Branch)
	assert.Equal(t, 1, rc.Transcript.Len())
}

type recordingLogger struct {
	logging.NoOpLogger
	args [][]any
}

func (l *recordingLogger) Info(_ string, args ...any) { l.args = append(l.args, args) }

func TestRunContext_LoggerTagsRun(t *testing.T) {
	rec := &recordingLogger{}
	rc := NewRunContext(context.Background(), "run-7", AgentInfo{Name: "root"}, "hi", 0, nil, rec)

	rc.LogInfo("top", "k", "v")
	rc.NewChildContext(AgentInfo{Name: "child"}, "x", "root.tool").LogInfo("nested")

	require.Len(t, rec.args, 2)
	assert.Equal(t, []any{"run_id", "run-7", "k", "v"}, rec.args[0])
	assert.Equal(t, []any{"run_id", "run-7", "branch", "root.tool"}, rec.args[1])
	assert.Same(t, rec, rc.Logger())
}

func TestRunContext_WithContext(t *testing.T) {
	rc := newTestRunContext(nil)
	ctx, cancel := context.WithCancel(context.Background())
	scoped := rc.WithContext(ctx)
	cancel()

	assert.Error(t, scoped.Err())
	assert.NoError(t, rc.Err())
	assert.Same(t, rc.Limiter, scoped.Limiter)
}

func TestRunContext_LogToolCallTagsRun(t *testing.T) {
	rec := &recordingLogger{}
	rc := NewRunContext(context.Background(), "run-8", AgentInfo{Name: "root"}, "hi", 0, nil, rec)

	rc.LogToolCall("handle_web_task", 0, nil, "agent", "root")

	require.Len(t, rec.args, 1)
	assert.Equal(t, []any{"tool_name", "handle_web_task", "duration", time.Duration(0), "run_id", "run-8", "agent", "root"}, rec.args[0])
}
