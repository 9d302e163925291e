package agent

import "fmt"

// BaseAgent bundles the identity shared by concrete agent implementations.
// Embed it and supply a Run method to satisfy the core.Agent interface.
type BaseAgent struct {
	name        string // Unique name within a registry
	description string // Hand-off description shown to routing agents
}

// NewBaseAgent constructs a BaseAgent. An empty description is replaced by a
// generated one.
func NewBaseAgent(name, description string) BaseAgent {
	if description == "" {
		description = fmt.Sprintf("Agent %s", name)
	}
	return BaseAgent{name: name, description: description}
}

// Name returns the unique name of this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns the hand-off description of this agent.
func (b *BaseAgent) Description() string { return b.description }
