// Package cli orchestrates a conversion run after configuration loading:
// it picks the presentation mode, wires signal handling to the cooperative
// stop controller, runs the engine, and renders the final report.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/samhuann/SuperEbookMachine/internal/cli/hooks"
	"github.com/samhuann/SuperEbookMachine/internal/cli/ui"
	"github.com/samhuann/SuperEbookMachine/pkg/converter"
)

// Run executes the conversion described by opts. ctx carries interrupt
// signals; cancellation requests a cooperative stop rather than killing jobs
// mid-flight, so conversions already handed to the external tool finish.
func Run(ctx context.Context, opts converter.Options, logger *slog.Logger) error {
	stop := converter.NewStopController()
	opts.Stop = stop

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	useTui := opts.TuiEnabled && interactive

	var program *tea.Program
	var model *ui.Model
	if useTui {
		model = ui.NewModel(stop, opts.AppVersion)
		program = tea.NewProgram(model, tea.WithOutput(os.Stderr))
		opts.EventHooks = hooks.NewCLIHooks(logger, true, false, &programAdapter{program: program}, nil)
	} else if !opts.Verbose && interactive {
		bar := newProgressBar()
		opts.EventHooks = hooks.NewCLIHooks(logger, false, false, nil, bar)
	} else {
		opts.EventHooks = hooks.NewCLIHooks(logger, false, opts.Verbose, nil, nil)
	}

	engine, err := converter.NewEngine(opts)
	if err != nil {
		logger.Error("Engine setup failed", slog.Any("error", err))
		return err
	}

	// A signal only halts further submissions; the engine runs on a
	// background context so in-flight external processes are never killed.
	go func() {
		<-ctx.Done()
		stop.RequestStop()
	}()

	var report converter.Report
	var runErr error
	if useTui {
		done := make(chan struct{})
		go func() {
			defer close(done)
			report, runErr = engine.Run(context.Background())
			program.Quit()
		}()
		if _, teaErr := program.Run(); teaErr != nil {
			logger.Error("Terminal UI failed", slog.Any("error", teaErr))
		}
		<-done
	} else {
		report, runErr = engine.Run(context.Background())
	}

	if runErr != nil {
		logger.Error("Run failed to start", slog.Any("error", runErr))
		return runErr
	}

	return RenderReport(os.Stdout, report, opts.ReportFormat)
}

// RenderReport writes the final run summary in the requested format.
func RenderReport(w io.Writer, report converter.Report, format converter.OutputFormat) error {
	if format == converter.OutputFormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	c := report.Summary.Counters
	for _, result := range report.Results {
		if _, err := fmt.Fprintln(w, result.Message); err != nil {
			return err
		}
	}
	state := "Done"
	if report.Summary.State == converter.RunStateStopped {
		state = "Stopped"
	}
	_, err := fmt.Fprintf(w, "%s. OK: %d  SKIP: %d  FAIL: %d  (%d/%d in %.1fs)\n",
		state, c.OK, c.Skip, c.Fail, c.Done, c.Total, report.Summary.DurationSeconds)
	return err
}

// programAdapter fits *tea.Program to the hooks.TUIProgram interface; Send
// there takes interface{} while the library's takes the named tea.Msg type.
type programAdapter struct {
	program *tea.Program
}

func (p *programAdapter) Send(msg interface{}) { p.program.Send(msg) }

// barAdapter fits schollz/progressbar to the hooks.ProgressBar interface;
// Describe there returns an error while the library's does not.
type barAdapter struct {
	bar *progressbar.ProgressBar
}

func (b *barAdapter) Add(num int) error { return b.bar.Add(num) }

func (b *barAdapter) Describe(description string) error {
	b.bar.Describe(description)
	return nil
}

func (b *barAdapter) Close() error { return b.bar.Close() }

func newProgressBar() hooks.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &barAdapter{bar: bar}
}
