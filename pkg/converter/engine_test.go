package converter_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/samhuann/SuperEbookMachine/internal/testutil"
	"github.com/samhuann/SuperEbookMachine/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseOptions(t *testing.T, inRoot, outRoot string) converter.Options {
	t.Helper()
	return converter.Options{
		InputPath:     inRoot,
		OutputPath:    outRoot,
		Extensions:    []string{".pdf"},
		Format:        "epub",
		Profile:       "kindle",
		ConverterPath: testutil.FakeTool(t, 0, ""),
		Concurrency:   4,
		Logger:        discardHandler(),
	}
}

func TestEngine_ConvertsEveryFile(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "sub", "b.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "skip.txt"), "x")

	engine, err := converter.NewEngine(baseOptions(t, inRoot, outRoot))
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	c := report.Summary.Counters
	assert.Equal(t, converter.RunStateCompleted, report.Summary.State)
	assert.Equal(t, 2, c.Total)
	assert.Equal(t, 2, c.Done)
	assert.Equal(t, 2, c.OK)
	assert.Zero(t, c.Skip)
	assert.Zero(t, c.Fail)
	assert.FileExists(t, filepath.Join(outRoot, "a.epub"))
	assert.FileExists(t, filepath.Join(outRoot, "sub", "b.epub"))
	assert.NotEmpty(t, report.Summary.RunID)
	assert.Len(t, report.Results, 2)
}

func TestEngine_SecondRunSkipsExistingOutputs(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "b.pdf"), "x")

	first, err := converter.NewEngine(baseOptions(t, inRoot, outRoot))
	require.NoError(t, err)
	_, err = first.Run(context.Background())
	require.NoError(t, err)

	second, err := converter.NewEngine(baseOptions(t, inRoot, outRoot))
	require.NoError(t, err)
	report, err := second.Run(context.Background())
	require.NoError(t, err)

	c := report.Summary.Counters
	assert.Equal(t, converter.RunStateCompleted, report.Summary.State)
	assert.Equal(t, 2, c.Skip)
	assert.Zero(t, c.OK)
	assert.Zero(t, c.Fail)
}

func TestEngine_OverwriteReconvertsExistingOutputs(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(outRoot, "a.epub"), "stale")

	opts := baseOptions(t, inRoot, outRoot)
	opts.Overwrite = true
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Counters.OK)
	assert.Zero(t, report.Summary.Counters.Skip)
}

func TestEngine_CopyModePreservesBytes(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "sub", "a.pdf"), "original bytes")

	opts := baseOptions(t, inRoot, outRoot)
	opts.CopyMode = true
	opts.Format = ""
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, converter.ModeCopy, report.Summary.Mode)
	out := filepath.Join(outRoot, "sub", "a.pdf")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "original bytes", string(data))
}

func TestEngine_FlattenPlacesOutputsAtRoot(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "x", "y", "doc.pdf"), "x")

	opts := baseOptions(t, inRoot, outRoot)
	opts.Flatten = true
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outRoot, "doc__x__y.epub"))
}

func TestEngine_FailedJobsDoNotAbortTheRun(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "b.pdf"), "x")

	opts := baseOptions(t, inRoot, outRoot)
	opts.ConverterPath = testutil.FakeTool(t, 1, "boom: unsupported input")
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	c := report.Summary.Counters
	assert.Equal(t, converter.RunStateCompleted, report.Summary.State)
	assert.Equal(t, 2, c.Done)
	assert.Equal(t, 2, c.Fail)
	for _, r := range report.Results {
		assert.Equal(t, "boom: unsupported input", r.Diagnostic)
	}
}

func TestEngine_StopHaltsFurtherSubmissions(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	const total = 50
	for i := 0; i < total; i++ {
		testutil.CreateDummyFile(t, filepath.Join(inRoot, fmt.Sprintf("book-%02d.pdf", i)), "x")
	}

	opts := baseOptions(t, inRoot, outRoot)
	opts.Concurrency = 1
	hooks := &stopAfterFirst{}
	opts.EventHooks = hooks
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	hooks.stop = engine.Stop()

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	c := report.Summary.Counters
	assert.Equal(t, converter.RunStateStopped, report.Summary.State)
	assert.Equal(t, total, c.Total, "total stays fixed at the scan count")
	assert.GreaterOrEqual(t, c.Done, 1)
	assert.Less(t, c.Done, total)
	assert.Equal(t, c.Done, len(report.Results))
}

func TestEngine_StopDuringFinalJobReportsStopped(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "only.pdf"), "x")

	opts := baseOptions(t, inRoot, outRoot)
	hooks := &stopAfterFirst{}
	opts.EventHooks = hooks
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	hooks.stop = engine.Stop()

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	// The stop landed after the last submission, so everything drained; the
	// run is still Stopped because cancellation occurred.
	c := report.Summary.Counters
	assert.Equal(t, converter.RunStateStopped, report.Summary.State)
	assert.Equal(t, 1, c.Total)
	assert.Equal(t, 1, c.Done)
}

func TestEngine_StateLifecycle(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")

	opts := baseOptions(t, inRoot, outRoot)
	observer := &stateObserver{}
	opts.EventHooks = observer
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	observer.engine = engine

	assert.Equal(t, converter.RunStateIdle, engine.State())

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	observer.mu.Lock()
	assert.Equal(t, converter.RunStateRunning, observer.duringJob)
	observer.mu.Unlock()
	assert.Equal(t, converter.RunStateCompleted, engine.State())
	assert.Equal(t, converter.RunStateCompleted, report.Summary.State)
}

func TestEngine_StateFailedToStart(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()

	engine, err := converter.NewEngine(baseOptions(t, inRoot, outRoot))
	require.NoError(t, err)
	// The root disappearing between setup and Run makes the scan itself
	// fail, which aborts before any job is submitted.
	require.NoError(t, os.RemoveAll(inRoot))

	report, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, converter.ErrScanFailed)
	assert.Equal(t, converter.RunStateFailedToStart, report.Summary.State)
	assert.Equal(t, converter.RunStateFailedToStart, engine.State())
}

func TestEngine_ProgressHookSeesMonotonicDone(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "b.pdf"), "x")
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "c.pdf"), "x")

	opts := baseOptions(t, inRoot, outRoot)
	hooks := &progressRecorder{}
	opts.EventHooks = hooks
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	require.Len(t, hooks.done, 3)
	assert.Equal(t, []int{1, 2, 3}, hooks.done)
	assert.True(t, hooks.runComplete)
}

func TestEngine_ValidationErrors(t *testing.T) {
	valid := func(t *testing.T) converter.Options {
		return baseOptions(t, t.TempDir(), t.TempDir())
	}

	cases := []struct {
		name   string
		mutate func(*converter.Options)
		want   error
	}{
		{"nil logger", func(o *converter.Options) { o.Logger = nil }, converter.ErrConfigValidation},
		{"missing input", func(o *converter.Options) { o.InputPath = "" }, converter.ErrConfigValidation},
		{"input not a directory", func(o *converter.Options) {
			f := filepath.Join(t.TempDir(), "file")
			testutil.CreateDummyFile(t, f, "")
			o.InputPath = f
		}, converter.ErrConfigValidation},
		{"missing output", func(o *converter.Options) { o.OutputPath = "" }, converter.ErrConfigValidation},
		{"no extensions", func(o *converter.Options) { o.Extensions = nil }, converter.ErrConfigValidation},
		{"no format in convert mode", func(o *converter.Options) { o.Format = "" }, converter.ErrConfigValidation},
		{"converter missing", func(o *converter.Options) {
			o.ConverterPath = filepath.Join(t.TempDir(), "nope")
		}, converter.ErrConverterNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid(t)
			tc.mutate(&opts)
			_, err := converter.NewEngine(opts)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEngine_ConcurrencyIsClamped(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(inRoot, "a.pdf"), "x")

	opts := baseOptions(t, inRoot, outRoot)
	opts.Concurrency = 500
	engine, err := converter.NewEngine(opts)
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, converter.MaxConcurrency, report.Summary.Concurrency)
}

// stopAfterFirst requests a cooperative stop from the first completed job.
type stopAfterFirst struct {
	converter.NoOpHooks
	once sync.Once
	stop *converter.StopController
}

func (h *stopAfterFirst) OnJobCompleted(result converter.JobResult, counters converter.RunCounters) error {
	h.once.Do(h.stop.RequestStop)
	return nil
}

// stateObserver samples the engine's lifecycle state from inside a worker
// callback, where Run is guaranteed to still be in flight.
type stateObserver struct {
	converter.NoOpHooks
	engine    *converter.Engine
	mu        sync.Mutex
	duringJob converter.RunState
}

func (h *stateObserver) OnJobCompleted(result converter.JobResult, counters converter.RunCounters) error {
	h.mu.Lock()
	h.duringJob = h.engine.State()
	h.mu.Unlock()
	return nil
}

// progressRecorder captures every progress callback under a mutex so the
// assertions can run after the engine returns.
type progressRecorder struct {
	converter.NoOpHooks
	mu          sync.Mutex
	done        []int
	runComplete bool
}

func (h *progressRecorder) OnProgress(done, total int) error {
	h.mu.Lock()
	h.done = append(h.done, done)
	h.mu.Unlock()
	return nil
}

func (h *progressRecorder) OnRunComplete(report converter.Report) error {
	h.mu.Lock()
	h.runComplete = true
	h.mu.Unlock()
	return nil
}
