package converter

// Status is the terminal outcome of a single job.
type Status string

const (
	StatusSuccess Status = "ok"
	StatusSkipped Status = "skip"
	StatusFailed  Status = "fail"
)

// Mode selects what a job does with its input file.
type Mode string

const (
	// ModeConvert invokes the external conversion tool.
	ModeConvert Mode = "convert"
	// ModeCopy copies the input byte-for-byte, keeping its extension.
	ModeCopy Mode = "copy"
)

// RunState describes where a run is in its lifecycle.
type RunState string

const (
	RunStateIdle          RunState = "idle"
	RunStateScanning      RunState = "scanning"
	RunStateRunning       RunState = "running"
	RunStateCompleted     RunState = "completed"
	RunStateStopped       RunState = "stopped"
	RunStateFailedToStart RunState = "failed-to-start"
)

// Target is a device preset that selects a recommended output format.
type Target string

const (
	// TargetApp is the Kindle app / Send-to-Kindle path (EPUB).
	TargetApp Target = "app"
	// TargetDevice is a physical Kindle over USB (AZW3).
	TargetDevice Target = "device"
)

// OutputFormat selects how the final run summary is rendered when the TUI is
// disabled.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// JobSpec is one unit of work: map a single input file to a single output
// file. Specs are immutable once built.
type JobSpec struct {
	InputPath  string
	OutputPath string
	Mode       Mode
	// ExtraArgs are passed through to the conversion tool unchanged, after
	// the input and output paths.
	ExtraArgs []string
}

// JobResult is the terminal outcome of executing one JobSpec. Exactly one is
// produced per accepted job.
type JobResult struct {
	Status     Status `json:"status"`
	InputPath  string `json:"inputPath"`
	OutputPath string `json:"outputPath"`
	// Message is the one-line, user-facing log line for this job:
	// "OK   <out>", "SKIP exists: <out>", or
	// "FAIL <in> -> <out> :: <reason>". When no output path could be
	// derived the FAIL line omits the "-> <out>" segment.
	Message string `json:"message"`
	// Diagnostic carries the condensed cause on failure (last non-blank
	// stderr line of the tool, or the underlying I/O error text).
	Diagnostic string `json:"diagnostic,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// RunCounters are the live aggregate counts for a run. All fields are
// monotonically non-decreasing for the lifetime of a run and
// Done == OK+Skip+Fail always holds for any snapshot.
type RunCounters struct {
	Total int `json:"total"`
	Done  int `json:"done"`
	OK    int `json:"ok"`
	Skip  int `json:"skip"`
	Fail  int `json:"fail"`
}
