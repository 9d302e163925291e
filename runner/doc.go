// Package runner implements the run entry point of devcrew.
//
// A Runner executes the root agent of a crew against one input string and
// produces exactly one final output. Runs are stateless: every run starts
// from a fresh transcript seeded with the input and nothing is kept after it
// completes.
//
// # Responsibilities
//   - Run lifecycle: run ids, cancellation, optional timeout
//   - Event streaming to callers (async) and final output extraction (sync)
//   - Per-run model call budget shared with nested agent-tool runs
//   - Bounding the number of concurrent runs
package runner
