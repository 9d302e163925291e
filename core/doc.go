// Package core provides the foundational domain types, interfaces and execution
// contexts used by devcrew. It defines the core abstractions for:
//
//   - Agents (named personas that can be run against a RunContext)
//   - Events (immutable records streamed while a run progresses)
//   - Content / Parts (role based text, function call and function response segments)
//   - RunContext / ToolContext (scoped execution state and tool sandboxing)
//   - Transcript (the ordered conversation of a single run)
//
// Runs are stateless: a transcript lives exactly as long as the run that owns it.
// Concrete agents, flows and model adapters live in their own packages.
package core
