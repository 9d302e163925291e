// Package agent contains the model backed agent used by devcrew and its
// supporting instruction helpers.
//
// A ModelAgent couples a language model with an instruction, an ordered tool
// list and an ordered list of hand-off targets. It is immutable after
// construction, so one value may serve concurrent runs.
//
// Execution Model:
//   - Run receives a *core.RunContext and selects a flow for the agent
//   - The flow drives model turns and tool calls against the run transcript
//   - A transfer request continues the run on the target agent with the same transcript
package agent
