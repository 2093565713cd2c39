package converter

import "errors"

// Exported error variables. These represent the categories of failure a run
// can surface; callers can check against them with errors.Is.

var (
	// ErrConfigValidation indicates the provided Options failed validation
	// (missing input root, no extensions selected, bad concurrency, ...).
	// Fatal: reported once, before any job runs.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrConverterNotFound indicates the external conversion executable could
	// not be resolved from the explicit path, the search path, or the
	// fallback location. Fatal configuration error.
	ErrConverterNotFound = errors.New("ebook-convert executable not found")

	// ErrScanFailed indicates the input root itself could not be traversed
	// (e.g. permission denied at the root). Fatal: aborts the run before any
	// job is submitted. Unreadable entries deeper in the tree are skipped,
	// not fatal.
	ErrScanFailed = errors.New("failed to scan input directory")

	// ErrMkdirFailed indicates a job could not create its output's parent
	// directories. Recovered locally: the job fails, the run continues.
	ErrMkdirFailed = errors.New("failed to create output directory")

	// ErrCopyFailed indicates a copy-mode job hit an I/O error. Recovered
	// locally.
	ErrCopyFailed = errors.New("failed to copy file")

	// ErrConvertFailed indicates the external tool could not be run, e.g.
	// during an installation check. Per-job conversion failures are not
	// wrapped: they surface as StatusFailed results whose diagnostic carries
	// the last non-blank line of the tool's stderr.
	ErrConvertFailed = errors.New("conversion tool failed to run")
)
