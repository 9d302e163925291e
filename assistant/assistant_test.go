package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/devcrew/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunSync(ctx context.Context, input string) (*core.RunResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*core.RunResult)
	return res, args.Error(1)
}

type panicRunner struct{}

func (panicRunner) RunSync(context.Context, string) (*core.RunResult, error) {
	panic("boom")
}

func TestAsk_EmptyInputNeverCallsRunner(t *testing.T) {
	for _, in := range []string{"", " ", "\t\n  "} {
		r := &mockRunner{}
		reply := New(r).Ask(context.Background(), in)

		assert.Equal(t, ReplyWarning, reply.Kind)
		assert.Equal(t, WarningEmptyInput, reply.Message)
		r.AssertNotCalled(t, "RunSync", mock.Anything, mock.Anything)
		assert.Empty(t, r.Calls)
	}
}

func TestAsk_Success(t *testing.T) {
	r := &mockRunner{}
	r.On("RunSync", mock.Anything, "How to create a login screen in Flutter?").
		Return(&core.RunResult{RunID: "r1", FinalOutput: "X", LastAgent: "App Development Agent"}, nil).Once()

	reply := New(r).Ask(context.Background(), "How to create a login screen in Flutter?")

	assert.Equal(t, ReplySuccess, reply.Kind)
	assert.Equal(t, "X", reply.Output)
	assert.Equal(t, "App Development Agent", reply.Agent)
	assert.Equal(t, "r1", reply.RunID)
	r.AssertExpectations(t)
}

func TestAsk_RunnerError(t *testing.T) {
	r := &mockRunner{}
	r.On("RunSync", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	reply := New(r).Ask(context.Background(), "what is ai agents")

	assert.Equal(t, ReplyError, reply.Kind)
	assert.Equal(t, "Error: quota exceeded", reply.Message)
	assert.Empty(t, reply.Output)
}

func TestAsk_RunnerPanic(t *testing.T) {
	var reply Reply
	assert.NotPanics(t, func() {
		reply = New(panicRunner{}).Ask(context.Background(), "what is ai agents")
	})
	assert.Equal(t, ReplyError, reply.Kind)
	assert.Equal(t, "Error: panic: boom", reply.Message)
}
