package converter

import (
	"log/slog"
)

// Hooks defines the callbacks the engine uses to report progress across the
// presentation boundary. Implementations MUST be thread-safe: methods may be
// called concurrently from worker goroutines via the aggregator.
type Hooks interface {
	// OnFileDiscovered fires once per matching file during the scan phase,
	// with the path relative to the input root.
	OnFileDiscovered(path string) error
	// OnJobCompleted fires exactly once per accepted job, in completion
	// order, with the counters snapshot taken after this result was applied.
	OnJobCompleted(result JobResult, counters RunCounters) error
	// OnProgress fires after each completed job with the running done/total.
	OnProgress(done, total int) error
	// OnRunComplete fires once, after every accepted job reached a terminal
	// state.
	OnRunComplete(report Report) error
}

// NoOpHooks is the default, do-nothing Hooks implementation.
type NoOpHooks struct{}

func (h *NoOpHooks) OnFileDiscovered(path string) error                          { return nil }
func (h *NoOpHooks) OnJobCompleted(result JobResult, counters RunCounters) error { return nil }
func (h *NoOpHooks) OnProgress(done, total int) error                            { return nil }
func (h *NoOpHooks) OnRunComplete(report Report) error                           { return nil }

// Options holds all configuration for a single Run.
type Options struct {
	// --- Core paths ---
	InputPath  string `mapstructure:"input"`  // Required: root to scan
	OutputPath string `mapstructure:"output"` // Required: root to write under

	// --- Scan ---
	// Extensions is the selected set of input extensions, each lower-cased
	// and dot-prefixed. Must be non-empty.
	Extensions []string `mapstructure:"ext"`
	// IgnorePatterns are glob patterns excluded during the scan.
	IgnorePatterns []string `mapstructure:"ignore"`

	// --- Conversion ---
	// CopyMode disables conversion: inputs are copied with their original
	// extension.
	CopyMode bool `mapstructure:"copy"`
	// Format is the conversion target (epub, azw3, mobi, ...), ignored in
	// copy mode.
	Format string `mapstructure:"format"`
	// Profile is passed to the tool as --output-profile, ignored in copy
	// mode.
	Profile string `mapstructure:"profile"`
	// Target is the device preset; it supplies the recommended Format when
	// none was set explicitly.
	Target Target `mapstructure:"target"`
	// ConverterPath is the explicit path to ebook-convert. Empty means
	// resolve via the search path and the fallback location.
	ConverterPath string `mapstructure:"converter"`
	// ResolvedConverterPath is derived once before the run starts.
	ResolvedConverterPath string `mapstructure:"-"`

	// --- Behavior ---
	Overwrite   bool `mapstructure:"overwrite"`
	Flatten     bool `mapstructure:"flatten"`
	Concurrency int  `mapstructure:"workers"`

	// --- Presentation ---
	Verbose      bool         `mapstructure:"verbose"`
	TuiEnabled   bool         `mapstructure:"-"`
	ReportFormat OutputFormat `mapstructure:"report-format"`

	// --- Reporting metadata ---
	ConfigFilePath string `mapstructure:"-"`
	AppVersion     string `mapstructure:"-"`

	// --- Injected dependencies ---
	EventHooks Hooks        `mapstructure:"-"` // Defaults to NoOpHooks
	Logger     slog.Handler `mapstructure:"-"` // Required by the engine
	// Stop is the shared cancellation controller. The engine creates one
	// when nil; callers that want to request a stop inject their own.
	Stop *StopController `mapstructure:"-"`
}
