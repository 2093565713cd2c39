package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samhuann/SuperEbookMachine/pkg/util"
)

// Walker enumerates the files eligible for conversion under the input root.
type Walker struct {
	opts       *Options
	hooks      Hooks
	logger     *slog.Logger
	extensions map[string]struct{}
}

// NewWalker creates a Walker for the given options. Extensions must already
// be normalized (lower-cased, dot-prefixed).
func NewWalker(opts *Options, loggerHandler slog.Handler) (*Walker, error) {
	if len(opts.Extensions) == 0 {
		return nil, fmt.Errorf("%w: no input extensions selected", ErrConfigValidation)
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[ext] = struct{}{}
	}
	hooks := opts.EventHooks
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	return &Walker{
		opts:       opts,
		hooks:      hooks,
		logger:     slog.New(loggerHandler).With(slog.String("component", "walker")),
		extensions: exts,
	}, nil
}

// Scan recursively visits everything under the input root and returns the
// absolute paths of all regular files whose lower-cased extension is in the
// selected set and which no ignore pattern excludes. Order follows the
// directory walk and is not part of the contract.
//
// Only a failure to traverse the root itself is fatal; entries that cannot be
// read deeper in the tree are logged and skipped.
func (w *Walker) Scan(ctx context.Context) ([]string, error) {
	w.logger.Info("Scanning input directory", slog.String("path", w.opts.InputPath))
	var files []string

	walkErr := filepath.WalkDir(w.opts.InputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.opts.InputPath {
				return fmt.Errorf("%w: %v", ErrScanFailed, err)
			}
			w.logger.Warn("Skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("Skipping symbolic link", slog.String("path", path))
			return nil
		}

		rel, relErr := filepath.Rel(w.opts.InputPath, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range w.opts.IgnorePatterns {
			if util.MatchesIgnorePattern(pattern, rel) {
				w.logger.Debug("Path ignored", slog.String("path", rel), slog.String("pattern", pattern))
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := w.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		if hookErr := w.hooks.OnFileDiscovered(rel); hookErr != nil {
			w.logger.Warn("OnFileDiscovered hook failed", slog.String("path", rel), slog.String("error", hookErr.Error()))
		}
		files = append(files, path)
		return nil
	})

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			w.logger.Info("Scan cancelled", slog.String("reason", walkErr.Error()))
			return files, walkErr
		}
		w.logger.Error("Scan failed", slog.String("error", walkErr.Error()))
		return nil, walkErr
	}
	w.logger.Info("Scan complete", slog.Int("files", len(files)))
	return files, nil
}

// ValidateRoot confirms the input root exists and is a directory. Split out
// so configuration validation can fail fast with the same check the walker
// relies on.
func ValidateRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: cannot access input root %q: %v", ErrConfigValidation, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: input root %q is not a directory", ErrConfigValidation, path)
	}
	return nil
}
