// Package hooks bridges engine events to the CLI presentation layer.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/samhuann/SuperEbookMachine/pkg/converter"
)

// --- TUI message structs ---
// Consumed by the bubbletea model in internal/cli/ui.

// FileDiscoveredMsg signals that the scan found a matching file.
type FileDiscoveredMsg struct{ Path string }

// JobCompletedMsg signals that one job reached a terminal state.
type JobCompletedMsg struct {
	Result   converter.JobResult
	Counters converter.RunCounters
}

// ProgressMsg carries the running done/total after a completed job.
type ProgressMsg struct {
	Done  int
	Total int
}

// RunCompleteMsg signals the completion of the entire run.
type RunCompleteMsg struct{ Report converter.Report }

// TUIProgram is the slice of the Bubble Tea program the hooks need.
type TUIProgram interface {
	Send(msg interface{})
}

// ProgressBar is the slice of the progress bar the hooks need.
type ProgressBar interface {
	Add(num int) error
	Describe(description string) error
	Close() error
}

// NoOpTUIProgram is the null TUIProgram.
type NoOpTUIProgram struct{}

func (n *NoOpTUIProgram) Send(msg interface{}) {}

// NoOpProgressBar is the null ProgressBar.
type NoOpProgressBar struct{}

func (n *NoOpProgressBar) Add(num int) error { return nil }

func (n *NoOpProgressBar) Describe(description string) error { return nil }

func (n *NoOpProgressBar) Close() error { return nil }

// CLIHooks implements converter.Hooks, routing engine events to exactly one
// of three sinks: the TUI, verbose structured logging, or the progress bar.
type CLIHooks struct {
	logger         *slog.Logger
	tuiEnabled     bool
	verboseEnabled bool
	tuiProgram     TUIProgram
	progressBar    ProgressBar
	mu             sync.Mutex // serializes progress bar updates
}

// NewCLIHooks creates the CLI's Hooks implementation. Pass nil for tuiProg or
// progBar where not applicable; NoOp versions are substituted.
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verboseEnabled bool, tuiProg TUIProgram, progBar ProgressBar) converter.Hooks {
	if tuiProg == nil {
		tuiProg = &NoOpTUIProgram{}
	}
	if progBar == nil {
		progBar = &NoOpProgressBar{}
	}
	return &CLIHooks{
		logger:         logger,
		tuiEnabled:     tuiEnabled,
		verboseEnabled: verboseEnabled,
		tuiProgram:     tuiProg,
		progressBar:    progBar,
	}
}

// OnFileDiscovered fires during the scan, before any job runs.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileDiscoveredMsg{Path: path})
	} else if h.verboseEnabled {
		h.logger.Debug("File discovered", slog.String("path", path))
	}
	return nil
}

// OnJobCompleted fires once per terminal job result. May be called from the
// aggregator goroutine while the producer is still submitting.
func (h *CLIHooks) OnJobCompleted(result converter.JobResult, counters converter.RunCounters) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(JobCompletedMsg{Result: result, Counters: counters})
		return nil
	}

	if h.verboseEnabled {
		level := slog.LevelInfo
		if result.Status == converter.StatusFailed {
			level = slog.LevelError
		}
		attrs := []any{
			slog.String("status", string(result.Status)),
			slog.String("input", result.InputPath),
			slog.String("output", result.OutputPath),
			slog.Int64("durationMs", result.DurationMs),
		}
		if result.Diagnostic != "" {
			attrs = append(attrs, slog.String("error", result.Diagnostic))
		}
		h.logger.Log(context.Background(), level, result.Message, attrs...)
		return nil
	}

	// Progress bar mode: the bar carries the counts, failures still get a
	// full log line so they are not lost when the bar redraws.
	h.mu.Lock()
	_ = h.progressBar.Add(1)
	_ = h.progressBar.Describe(fmt.Sprintf("OK %d | SKIP %d | FAIL %d", counters.OK, counters.Skip, counters.Fail))
	h.mu.Unlock()
	if result.Status == converter.StatusFailed {
		h.logger.Error("Job failed", slog.String("input", result.InputPath), slog.String("error", result.Diagnostic))
	}
	return nil
}

// OnProgress forwards the running done/total to the TUI.
func (h *CLIHooks) OnProgress(done, total int) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(ProgressMsg{Done: done, Total: total})
	}
	return nil
}

// OnRunComplete delivers the final report to the TUI or finalizes the
// progress bar. The text/JSON summary itself is rendered by the CLI layer.
func (h *CLIHooks) OnRunComplete(report converter.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return nil
	}
	h.mu.Lock()
	_ = h.progressBar.Close()
	h.mu.Unlock()
	if !h.verboseEnabled {
		// Keep the shell prompt off the finished bar's line.
		fmt.Fprintln(os.Stderr)
	}
	return nil
}
