package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Engine orchestrates a batch run: scan, dispatch across the worker pool,
// aggregate results, and report.
type Engine struct {
	opts        *Options
	logger      *slog.Logger
	hooks       Hooks
	stop        *StopController
	executor    *JobExecutor
	aggregator  *resultAggregator
	concurrency int
	runID       string
	runState    atomic.Value // RunState
}

// NewEngine validates options, resolves the external converter, and prepares
// an Engine. All configuration errors are surfaced here, before any job runs.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	if opts.InputPath == "" {
		return nil, fmt.Errorf("%w: input root is required", ErrConfigValidation)
	}
	if err := ValidateRoot(opts.InputPath); err != nil {
		return nil, err
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: output root is required", ErrConfigValidation)
	}
	if err := os.MkdirAll(opts.OutputPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create or access output directory %q: %v", ErrConfigValidation, opts.OutputPath, err)
	}
	if len(opts.Extensions) == 0 {
		return nil, fmt.Errorf("%w: at least one input extension must be selected", ErrConfigValidation)
	}
	if !opts.CopyMode && opts.Format == "" {
		return nil, fmt.Errorf("%w: output format is required in convert mode", ErrConfigValidation)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		logger.Warn("Concurrency capped", slog.Int("requested", opts.Concurrency), slog.Int("max", MaxConcurrency))
		concurrency = MaxConcurrency
	}
	opts.Concurrency = concurrency

	// The tool is required even in copy mode, so a misconfigured install
	// surfaces before a long copy run rather than on the next convert run.
	converterPath, err := FindConverter(opts.ConverterPath)
	if err != nil {
		return nil, err
	}
	opts.ResolvedConverterPath = converterPath
	logger.Debug("Resolved converter", slog.String("path", converterPath))

	stop := opts.Stop
	if stop == nil {
		stop = NewStopController()
		opts.Stop = stop
	}

	e := &Engine{
		opts:        &opts,
		logger:      logger,
		hooks:       opts.EventHooks,
		stop:        stop,
		executor:    NewJobExecutor(converterPath, opts.Overwrite, opts.Logger),
		aggregator:  newResultAggregator(),
		concurrency: concurrency,
		runID:       uuid.New().String(),
	}
	e.runState.Store(RunStateIdle)
	return e, nil
}

// Stop returns the run's cancellation controller.
func (e *Engine) Stop() *StopController { return e.stop }

// State reports where the run currently is in its lifecycle. Safe to call
// from hooks while Run is in flight.
func (e *Engine) State() RunState {
	return e.runState.Load().(RunState)
}

// Run executes the batch. It blocks until every accepted job reached a
// terminal state (or the scan failed), then reports. The context cancels the
// scan and is forwarded to the external tool; cooperative cancellation via
// the StopController only halts further submissions and lets submitted jobs
// drain.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	startTime := time.Now()
	e.logger.Info("Starting run",
		slog.String("runId", e.runID),
		slog.Int("concurrency", e.concurrency),
		slog.Bool("copyMode", e.opts.CopyMode),
		slog.Bool("flatten", e.opts.Flatten),
		slog.Bool("overwrite", e.opts.Overwrite),
	)

	e.runState.Store(RunStateScanning)
	walker, err := NewWalker(e.opts, e.opts.Logger)
	if err != nil {
		return e.report(RunStateFailedToStart, startTime), err
	}
	files, scanErr := walker.Scan(ctx)
	if scanErr != nil {
		if files == nil {
			// The root itself was untraversable; nothing ran.
			return e.report(RunStateFailedToStart, startTime), scanErr
		}
		// Cancelled mid-scan: keep what was found, submit nothing.
		e.stop.RequestStop()
	}

	e.aggregator.setTotal(len(files))
	e.runState.Store(RunStateRunning)
	e.logger.Info("Scan finished, dispatching", slog.Int("total", len(files)))

	var extraArgs []string
	mode := ModeConvert
	if e.opts.CopyMode {
		mode = ModeCopy
	} else if e.opts.Profile != "" {
		extraArgs = []string{"--output-profile", e.opts.Profile}
	}

	jobs := make(chan JobSpec, e.concurrency)
	results := make(chan JobResult, e.concurrency)
	var wg sync.WaitGroup

	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, i, jobs, results)
	}

	aggregatorDone := make(chan struct{})
	go e.aggregateResults(results, aggregatorDone)

	for _, input := range files {
		if e.stop.Stopped() {
			e.logger.Info("Stop requested, no further jobs will be submitted")
			break
		}
		outPath, buildErr := BuildOutputPath(
			e.opts.InputPath, e.opts.OutputPath, input,
			e.opts.Format, e.opts.Flatten, e.opts.CopyMode,
		)
		if buildErr != nil {
			// Cannot place the output; terminal failure for this file.
			// No destination exists here, so the line drops the usual
			// "-> <out>" segment.
			results <- JobResult{
				Status:     StatusFailed,
				InputPath:  input,
				Message:    fmt.Sprintf("FAIL %s :: %v", input, buildErr),
				Diagnostic: buildErr.Error(),
			}
			continue
		}
		jobs <- JobSpec{
			InputPath:  input,
			OutputPath: outPath,
			Mode:       mode,
			ExtraArgs:  extraArgs,
		}
	}
	close(jobs)
	// Submitted jobs drain to completion even after a stop request.
	wg.Wait()
	close(results)
	<-aggregatorDone

	counters := e.aggregator.snapshot()
	// Any stop request marks the run Stopped, even when it landed after the
	// last submission and every job still drained. Completed means no
	// cancellation occurred at all.
	state := RunStateCompleted
	if e.stop.Stopped() {
		state = RunStateStopped
	}

	report := e.report(state, startTime)
	e.logger.Info("Run finished",
		slog.String("state", string(state)),
		slog.Int("total", counters.Total),
		slog.Int("done", counters.Done),
		slog.Int("ok", counters.OK),
		slog.Int("skip", counters.Skip),
		slog.Int("fail", counters.Fail),
		slog.Duration("duration", time.Since(startTime)),
	)
	if hookErr := e.hooks.OnRunComplete(report); hookErr != nil {
		e.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
	}
	return report, nil
}

// worker executes jobs until the channel closes. A stop request does not
// interrupt it: everything already submitted runs to completion.
func (e *Engine) worker(ctx context.Context, wg *sync.WaitGroup, id int, jobs <-chan JobSpec, results chan<- JobResult) {
	defer wg.Done()
	logger := e.logger.With(slog.Int("workerID", id))
	logger.Debug("Worker started")
	for spec := range jobs {
		results <- e.executor.Execute(ctx, spec)
	}
	logger.Debug("Worker shutting down")
}

// aggregateResults consumes completed jobs and forwards progress events.
// Running it on a single goroutine serializes counter updates regardless of
// how many workers produce results.
func (e *Engine) aggregateResults(results <-chan JobResult, done chan<- struct{}) {
	defer close(done)
	for result := range results {
		counters := e.aggregator.apply(result)
		if hookErr := e.hooks.OnJobCompleted(result, counters); hookErr != nil {
			e.logger.Warn("OnJobCompleted hook returned an error", slog.String("error", hookErr.Error()))
		}
		if hookErr := e.hooks.OnProgress(counters.Done, counters.Total); hookErr != nil {
			e.logger.Warn("OnProgress hook returned an error", slog.String("error", hookErr.Error()))
		}
	}
}

func (e *Engine) report(state RunState, startTime time.Time) Report {
	e.runState.Store(state)
	counters, results := e.aggregator.getResults()
	mode := ModeConvert
	if e.opts.CopyMode {
		mode = ModeCopy
	}
	return Report{
		Summary: RunSummary{
			RunID:           e.runID,
			InputPath:       e.opts.InputPath,
			OutputPath:      e.opts.OutputPath,
			ConverterPath:   e.opts.ResolvedConverterPath,
			ConfigFilePath:  e.opts.ConfigFilePath,
			Mode:            mode,
			Format:          e.opts.Format,
			Profile:         e.opts.Profile,
			Flatten:         e.opts.Flatten,
			Overwrite:       e.opts.Overwrite,
			Concurrency:     e.concurrency,
			State:           state,
			Counters:        counters,
			DurationSeconds: time.Since(startTime).Seconds(),
			Timestamp:       time.Now().UTC(),
		},
		Results: results,
	}
}

// --- resultAggregator ---

// resultAggregator owns RunCounters. All mutation happens through its
// methods under the mutex, so snapshots are never torn.
type resultAggregator struct {
	mu       sync.Mutex
	counters RunCounters
	results  []JobResult
}

func newResultAggregator() *resultAggregator {
	return &resultAggregator{results: make([]JobResult, 0, 128)}
}

func (a *resultAggregator) setTotal(total int) {
	a.mu.Lock()
	a.counters.Total = total
	a.mu.Unlock()
}

// apply records one terminal result and returns the counters snapshot taken
// after it was applied.
func (a *resultAggregator) apply(result JobResult) RunCounters {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters.Done++
	switch result.Status {
	case StatusSuccess:
		a.counters.OK++
	case StatusSkipped:
		a.counters.Skip++
	default:
		a.counters.Fail++
	}
	a.results = append(a.results, result)
	return a.counters
}

func (a *resultAggregator) snapshot() RunCounters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}

func (a *resultAggregator) getResults() (RunCounters, []JobResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	results := make([]JobResult, len(a.results))
	copy(results, a.results)
	return a.counters, results
}
