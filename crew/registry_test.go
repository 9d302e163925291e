package crew

import (
	"testing"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	name     string
	handoffs []core.Agent
	tools    []tool.Tool
}

func (a *stubAgent) Name() string               { return a.name }
func (a *stubAgent) Description() string        { return "stub " + a.name }
func (a *stubAgent) Run(*core.RunContext) error { return nil }
func (a *stubAgent) Handoffs() []core.Agent     { return a.handoffs }
func (a *stubAgent) Tools() []tool.Tool         { return a.tools }

func TestRegistry_SharedAgentRegisteredOnce(t *testing.T) {
	shared := &stubAgent{name: "shared"}
	a := &stubAgent{name: "a", handoffs: []core.Agent{shared}}
	b := &stubAgent{name: "b", tools: []tool.Tool{tool.NewAgentTool(shared, "use_shared", "")}}
	root := &stubAgent{name: "root", handoffs: []core.Agent{a, b}}

	reg := NewRegistry(root)
	require.NoError(t, reg.Validate())
	assert.Equal(t, []string{"root", "a", "b", "shared"}, reg.Reachable())
}

func TestRegistry_DuplicateAgent(t *testing.T) {
	root := &stubAgent{name: "root", handoffs: []core.Agent{
		&stubAgent{name: "twin"},
		&stubAgent{name: "twin"},
	}}

	err := NewRegistry(root).Validate()
	require.ErrorIs(t, err, ErrDuplicateAgent)
	assert.Contains(t, err.Error(), "twin")
}

func TestRegistry_DuplicateTool(t *testing.T) {
	root := &stubAgent{name: "root", tools: []tool.Tool{NewWebTaskTool(), NewWebTaskTool()}}

	err := NewRegistry(root).Validate()
	require.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegistry_Cycle(t *testing.T) {
	a := &stubAgent{name: "a"}
	b := &stubAgent{name: "b"}
	root := &stubAgent{name: "root", handoffs: []core.Agent{a}}
	a.handoffs = []core.Agent{b}
	b.tools = []tool.Tool{tool.NewAgentTool(a, "back_to_a", "")}

	reg := NewRegistry(root)
	assert.Len(t, reg.Agents(), 3)

	err := reg.Validate()
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "a -> b -> a")

	assert.NotPanics(t, func() { _ = reg.Describe().String() })
}

func TestRegistry_LeafWithoutCapabilities(t *testing.T) {
	reg := NewRegistry(&funcOnly{})
	require.NoError(t, reg.Validate())
	assert.Equal(t, []string{"solo"}, reg.Reachable())
	assert.Nil(t, reg.HandoffTargets("solo"))
}

type funcOnly struct{}

func (*funcOnly) Name() string               { return "solo" }
func (*funcOnly) Description() string        { return "" }
func (*funcOnly) Run(*core.RunContext) error { return nil }
