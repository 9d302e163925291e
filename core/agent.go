package core

// Agent defines the core interface that all agents in devcrew implement.
//
// An agent receives a *RunContext, drives zero or more model turns, and emits
// events through the context. Agents are constructed once and are read-only
// afterwards, so a single Agent value may serve concurrent runs.
//
// Implementations must:
//   - Respect RunContext cancellation
//   - Emit events through RunContext.EmitEvent
//   - Append conversational content to RunContext.Transcript
type Agent interface {
	// Name returns the unique identifier of the agent within a registry.
	Name() string
	// Description returns the hand-off description shown to routing agents.
	Description() string
	// Run executes the agent until it produces a final response or transfers
	// control to another agent.
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "model", "test").
type AgentInfo struct{ Name, Type string }
