package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/logging"
)

var (
	// ErrRunNotFound is returned by Cancel for unknown or finished runs.
	ErrRunNotFound = errors.New("run not found")
	// ErrNoFinalOutput is returned when a run ends without a final assistant message.
	ErrNoFinalOutput = errors.New("run produced no final output")
	// ErrEmptyInput is returned when the input is empty or whitespace only.
	ErrEmptyInput = errors.New("input is empty")
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxConcurrentRuns limits concurrent runs. Zero disables the limit.
	MaxConcurrentRuns int
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run, nested runs included.
	MaxModelCalls int
	// Timeout bounds a whole run. Zero disables the bound.
	Timeout time.Duration
	// Logger receives run lifecycle records.
	Logger logging.Logger
}

// Runner executes the root agent. Public methods are safe for concurrent use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int
	timeout         time.Duration
	sem             chan struct{}
	logger          logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

var _ core.Runner = (*Runner)(nil)

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: 10,
		EventBufferSize:   100,
		MaxModelCalls:     25,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.EventBufferSize < 1 {
		opts.EventBufferSize = 1
	}

	var sem chan struct{}
	if opts.MaxConcurrentRuns > 0 {
		sem = make(chan struct{}, opts.MaxConcurrentRuns)
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		timeout:         opts.Timeout,
		sem:             sem,
		logger:          opts.Logger,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// run bundles the channels and context of one in-flight run.
type run struct {
	id     string
	ctx    *core.RunContext
	events <-chan core.Event
	errs   <-chan error
}

// Run starts an asynchronous run. The events channel is closed when the run
// ends; the error channel then yields at most one terminal error and closes.
func (r *Runner) Run(ctx context.Context, input string) (string, <-chan core.Event, <-chan error, error) {
	rn, err := r.start(ctx, input)
	if err != nil {
		return "", nil, nil, err
	}
	return rn.id, rn.events, rn.errs, nil
}

// RunSync blocks until the run completes and returns the text of the final
// assistant message on the top-level branch.
func (r *Runner) RunSync(ctx context.Context, input string) (*core.RunResult, error) {
	rn, err := r.start(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &core.RunResult{RunID: rn.id}

	for ev := range rn.events {
		if ev.Branch == "" && ev.IsFinalResponse() {
			result.FinalOutput = ev.Text()
			result.LastAgent = ev.Author
		}
	}

	result.ModelCalls = rn.ctx.Limiter.Count()

	if err := <-rn.errs; err != nil {
		return nil, err
	}

	if result.FinalOutput == "" {
		return nil, fmt.Errorf("run %s: %w", rn.id, ErrNoFinalOutput)
	}

	return result, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	return nil
}

// ActiveRuns returns the number of in-flight runs.
func (r *Runner) ActiveRuns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.activeRuns)
}

func (r *Runner) start(parent context.Context, input string) (*run, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
		case <-parent.Done():
			return nil, parent.Err()
		}
	}

	runID := core.NewID()

	ctx, cancel := context.WithCancel(parent)
	if r.timeout > 0 {
		ctx, cancel = withTimeout(ctx, cancel, r.timeout)
	}

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	agentEmit := make(chan core.Event, r.eventBufferSize)
	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	done := make(chan error, 1)

	runCtx := core.NewRunContext(
		ctx,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: "root"},
		input,
		r.maxModelCalls,
		agentEmit,
		r.logger,
	)

	eventsCh <- core.NewUserMessageEvent(runID, input)

	r.logger.Info("run.start", "run_id", runID, "agent", r.agent.Name())

	start := time.Now()

	go func() {
		defer close(agentEmit)
		done <- r.agent.Run(runCtx)
	}()

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			if r.sem != nil {
				<-r.sem
			}
			close(errorsCh)
		}()

		var lastAgent string
		for ev := range agentEmit {
			if ev.Branch == "" && ev.IsFinalResponse() {
				lastAgent = ev.Author
			}
			select {
			case eventsCh <- ev:
			case <-ctx.Done():
			}
		}
		close(eventsCh)

		err := <-done
		if err != nil {
			err = fmt.Errorf("agent execution failed: %w", err)
			logging.LogRun(r.logger, runID, lastAgent, runCtx.Limiter.Count(), time.Since(start), err)
			errorsCh <- err
			return
		}

		logging.LogRun(r.logger, runID, lastAgent, runCtx.Limiter.Count(), time.Since(start), nil)
	}()

	return &run{id: runID, ctx: runCtx, events: eventsCh, errs: errorsCh}, nil
}

func withTimeout(ctx context.Context, cancel context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	tctx, tcancel := context.WithTimeout(ctx, d)
	return tctx, func() {
		tcancel()
		cancel()
	}
}
