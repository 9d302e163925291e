package core

import (
	"context"

	"github.com/hupe1980/devcrew/logging"
)

// RunContext carries execution state & helpers for an agent run.
// It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (RunID, current Agent)
//   - The user input that started the run (or nested agent-tool run)
//   - The emission channel consumed by the runner
//   - The run Transcript and the shared model call Limiter
//   - Branch label for nested agent-tool runs
type RunContext struct {
	Context    context.Context
	RunID      string
	Agent      AgentInfo
	Input      string
	Emit       chan<- Event
	Transcript *Transcript
	Limiter    *ModelLimiter
	Branch     string
	Depth      int

	*runLogger
}

// NewRunContext constructs a top-level RunContext whose transcript is seeded
// with the user input.
func NewRunContext(
	ctx context.Context,
	runID string,
	agent AgentInfo,
	input string,
	maxModelCalls int,
	emit chan<- Event,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:    ctx,
		RunID:      runID,
		Agent:      agent,
		Input:      input,
		Emit:       emit,
		Transcript: NewTranscript(NewTextContent(RoleUser, input)),
		Limiter:    NewModelLimiter(maxModelCalls),
		runLogger:  newRunLogger(logger, runID, ""),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// ForAgent returns a shallow copy bound to another agent. The transcript,
// limiter and emit channel are shared, which is what a hand-off needs.
func (rc *RunContext) ForAgent(agent AgentInfo) *RunContext {
	c := *rc
	c.Agent = agent
	return &c
}

// WithContext returns a shallow copy bound to ctx.
func (rc *RunContext) WithContext(ctx context.Context) *RunContext {
	c := *rc
	c.Context = ctx
	return &c
}

// NewChildContext derives the context of a nested agent-tool run. The child
// gets a fresh transcript seeded with input, keeps the shared limiter and emit
// channel, and runs on the given branch label.
func (rc *RunContext) NewChildContext(agent AgentInfo, input, branch string) *RunContext {
	return &RunContext{
		Context:    rc.Context,
		RunID:      rc.RunID,
		Agent:      agent,
		Input:      input,
		Emit:       rc.Emit,
		Transcript: NewTranscript(NewTextContent(RoleUser, input)),
		Limiter:    rc.Limiter,
		Branch:     branch,
		Depth:      rc.Depth + 1,
		runLogger:  newRunLogger(rc.Logger(), rc.RunID, branch),
	}
}

// IsNested reports whether the context belongs to an agent-tool run.
func (rc *RunContext) IsNested() bool { return rc.Branch != "" }

// EmitEvent stamps the run id and branch onto the event and sends it.
// Non-partial events with content are appended to the transcript first.
func (rc *RunContext) EmitEvent(ev Event) error {
	ev.RunID = rc.RunID
	ev.Branch = rc.Branch

	if ev.Content != nil && !ev.Partial && rc.Transcript != nil {
		rc.Transcript.Append(*ev.Content)
	}

	if rc.Emit == nil {
		return nil
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}
