package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/samhuann/SuperEbookMachine/pkg/util"
)

// JobExecutor runs a single JobSpec and classifies the outcome. It performs
// exactly one attempt per job; there is no retry and no timeout, so a hung
// external process holds its worker slot until it exits.
type JobExecutor struct {
	converterPath string
	overwrite     bool
	logger        *slog.Logger
}

// NewJobExecutor creates an executor bound to a resolved converter path.
func NewJobExecutor(converterPath string, overwrite bool, loggerHandler slog.Handler) *JobExecutor {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	return &JobExecutor{
		converterPath: converterPath,
		overwrite:     overwrite,
		logger:        slog.New(loggerHandler).With(slog.String("component", "executor")),
	}
}

// Execute runs one job to a terminal JobResult. Errors never escape the job
// boundary: every failure mode, including a panic inside the job, becomes a
// StatusFailed result so sibling jobs are unaffected.
func (e *JobExecutor) Execute(ctx context.Context, spec JobSpec) (result JobResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic recovered in job", slog.String("input", spec.InputPath), slog.Any("panicValue", r))
			result = e.failed(spec, fmt.Sprintf("panic: %v", r))
		}
		result.DurationMs = time.Since(start).Milliseconds()
	}()

	if err := os.MkdirAll(filepath.Dir(spec.OutputPath), 0o755); err != nil {
		e.logger.Warn("Could not create output directory", slog.String("path", filepath.Dir(spec.OutputPath)), slog.String("error", err.Error()))
		return e.failed(spec, fmt.Sprintf("%v: %v", ErrMkdirFailed, err))
	}

	// Check-then-act; not atomic against outside filesystem changes, which
	// is acceptable because jobs within a run never target the same output
	// under non-colliding inputs.
	if _, err := os.Stat(spec.OutputPath); err == nil && !e.overwrite {
		return JobResult{
			Status:     StatusSkipped,
			InputPath:  spec.InputPath,
			OutputPath: spec.OutputPath,
			Message:    fmt.Sprintf("SKIP exists: %s", spec.OutputPath),
		}
	}

	if spec.Mode == ModeCopy {
		if err := copyFile(spec.InputPath, spec.OutputPath); err != nil {
			return e.failed(spec, err.Error())
		}
		return e.succeeded(spec)
	}

	args := append([]string{spec.InputPath, spec.OutputPath}, spec.ExtraArgs...)
	cmd := exec.CommandContext(ctx, e.converterPath, args...)
	cmd.Stdout = nil // tool chatter is discarded
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("Invoking converter", slog.String("input", spec.InputPath), slog.String("output", spec.OutputPath))
	if err := cmd.Run(); err != nil {
		diag := util.LastNonBlankLine(stderr.String())
		if diag == "" {
			diag = "Unknown error"
		}
		e.logger.Debug("Converter failed", slog.String("input", spec.InputPath), slog.String("diagnostic", diag), slog.String("error", err.Error()))
		return e.failed(spec, diag)
	}
	return e.succeeded(spec)
}

func (e *JobExecutor) succeeded(spec JobSpec) JobResult {
	return JobResult{
		Status:     StatusSuccess,
		InputPath:  spec.InputPath,
		OutputPath: spec.OutputPath,
		Message:    fmt.Sprintf("OK   %s", spec.OutputPath),
	}
}

func (e *JobExecutor) failed(spec JobSpec, diagnostic string) JobResult {
	return JobResult{
		Status:     StatusFailed,
		InputPath:  spec.InputPath,
		OutputPath: spec.OutputPath,
		Message:    fmt.Sprintf("FAIL %s -> %s :: %s", spec.InputPath, spec.OutputPath, diagnostic),
		Diagnostic: diagnostic,
	}
}

// copyFile copies src to dst byte-for-byte and carries over the file mode and
// modification time, mirroring what the underlying filesystem supports.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	if err := os.Chtimes(dst, time.Now(), info.ModTime()); err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	return nil
}
