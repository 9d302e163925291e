package core

import "context"

// RunResult is the outcome of one run.
type RunResult struct {
	RunID       string `json:"run_id"`
	FinalOutput string `json:"final_output"`
	LastAgent   string `json:"last_agent"`
	ModelCalls  int    `json:"model_calls"`
}

// Runner defines the orchestration contract for executing the root agent of a
// registry against a single input string. Runs are stateless.
//
// Semantics & Guarantees:
//   - Event Ordering: events of a run are delivered in the order produced.
//   - Channel Lifecycle: the events channel is closed after the run completes
//     (success, error, or cancellation). The error channel carries at most one
//     terminal error then closes.
//   - Cancellation: context cancellation or Cancel(runID) stops the run.
type Runner interface {
	// Run starts an asynchronous run. The immediate error covers startup failures.
	Run(ctx context.Context, input string) (string, <-chan Event, <-chan error, error)

	// RunSync blocks until the run completes and returns its final output.
	RunSync(ctx context.Context, input string) (*RunResult, error)

	// Cancel requests cooperative termination of an in-flight run.
	Cancel(runID string) error
}
