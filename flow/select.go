package flow

// SingleAgentFlow drives an agent without hand-offs: instructions, transcript
// window and tool declarations go into every request.
type SingleAgentFlow struct{ *BaseFlow }

// MultiAgentFlow is a SingleAgentFlow that also declares transfer_to_agent
// for the agent's hand-off targets.
type MultiAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow returns a flow with the default processors.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	return &SingleAgentFlow{BaseFlow: withDefaults(agent, false)}
}

// NewMultiAgentFlow returns a flow with the default processors plus the
// transfer tool injector.
func NewMultiAgentFlow(agent FlowAgent) *MultiAgentFlow {
	return &MultiAgentFlow{BaseFlow: withDefaults(agent, true)}
}

func withDefaults(agent FlowAgent, transfers bool) *BaseFlow {
	f := NewBaseFlow(agent)
	for _, p := range []RequestProcessor{NewInstructionsProcessor(), NewContentsProcessor(), NewToolsProcessor()} {
		f.AddRequestProcessor(p)
	}
	if transfers {
		f.AddRequestProcessor(NewTransferToolInjector())
	}
	f.AddResponseProcessor(NewFunctionCallIDProcessor())
	return f
}

// Selector picks the flow matching an agent's capabilities.
type Selector struct{}

// NewSelector returns a Selector.
func NewSelector() *Selector { return &Selector{} }

// SelectFlow returns a MultiAgentFlow when the agent has hand-off targets
// and a SingleAgentFlow otherwise.
func (s *Selector) SelectFlow(agent FlowAgent) Flow {
	if len(agent.HandoffTargets()) > 0 {
		return NewMultiAgentFlow(agent)
	}
	return NewSingleAgentFlow(agent)
}
