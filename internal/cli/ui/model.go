// Package ui renders the interactive terminal view of a conversion run.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samhuann/SuperEbookMachine/internal/cli/hooks"
	"github.com/samhuann/SuperEbookMachine/pkg/converter"
)

const listHeightMargin = 4 // header + footer + padding

// pending marks a discovered file that has no terminal result yet.
const statusPending converter.Status = "pending"

// Model is the bubbletea model for a run: a scrollable file list between a
// phase header and a counters footer. All mutation happens on the bubbletea
// event loop; hook goroutines only Send messages.
type Model struct {
	list        list.Model
	spinner     spinner.Model
	width       int
	height      int
	initialized bool

	fileItems []listItem
	itemMap   map[string]int // input path -> index into fileItems

	counters     converter.RunCounters
	startTime    time.Time
	phaseMessage string
	finalState   converter.RunState
	appVersion   string
	quitting     bool
	stopPending  bool

	// stop lets the user request a graceful stop with the 's' key. Jobs
	// already submitted still finish.
	stop *converter.StopController

	debounceTimer *time.Timer
}

// listItem is one file in the list.
type listItem struct {
	path    string // input path, relative during scan, absolute once completed
	status  converter.Status
	message string
	millis  int64
}

// NewModel creates the initial model. The StopController must be the one the
// engine runs with.
func NewModel(stop *converter.StopController, appVersion string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorSelectedDescFg).
		Background(ColorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(ColorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(ColorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return &Model{
		list:         l,
		spinner:      s,
		itemMap:      make(map[string]int),
		fileItems:    make([]listItem, 0, 256),
		startTime:    time.Now(),
		phaseMessage: "Scanning...",
		stop:         stop,
		appVersion:   appVersion,
	}
}

// Init starts the spinner animation.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles key input, hook messages, and bubbletea internals.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			// Quitting the view also stops submissions; submitted jobs
			// still drain in the background before the process exits.
			m.stop.RequestStop()
			m.quitting = true
			return m, tea.Quit
		case "s":
			m.stop.RequestStop()
			m.stopPending = true
			m.phaseMessage = "Stopping (submitted jobs will finish)..."
			return m, nil
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting || m.finalState != "" {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	case hooks.FileDiscoveredMsg:
		if _, exists := m.itemMap[msg.Path]; !exists {
			m.fileItems = append(m.fileItems, listItem{path: msg.Path, status: statusPending})
			m.itemMap[msg.Path] = len(m.fileItems) - 1
			m.counters.Total++
			cmds = append(cmds, m.debounceListUpdate())
		}

	case hooks.JobCompletedMsg:
		if m.phaseMessage == "Scanning..." {
			m.phaseMessage = "Converting..."
		}
		m.counters = msg.Counters
		item := listItem{
			path:    msg.Result.InputPath,
			status:  msg.Result.Status,
			message: msg.Result.Message,
			millis:  msg.Result.DurationMs,
		}
		// Discovery used root-relative paths while results carry absolute
		// ones; fall back to a suffix match before appending a new row.
		idx, ok := m.itemMap[msg.Result.InputPath]
		if !ok {
			idx, ok = m.findBySuffix(msg.Result.InputPath)
		}
		if ok {
			item.path = m.fileItems[idx].path
			m.fileItems[idx] = item
		} else {
			m.fileItems = append(m.fileItems, item)
			m.itemMap[msg.Result.InputPath] = len(m.fileItems) - 1
		}
		cmds = append(cmds, m.debounceListUpdate())

	case hooks.ProgressMsg:
		m.counters.Done = msg.Done
		m.counters.Total = msg.Total

	case hooks.RunCompleteMsg:
		m.finalState = msg.Report.Summary.State
		m.counters = msg.Report.Summary.Counters
		switch m.finalState {
		case converter.RunStateStopped:
			m.phaseMessage = "Stopped"
		default:
			m.phaseMessage = "Complete"
		}

	case UpdateListMsg:
		items := make([]list.Item, len(m.fileItems))
		for i, item := range m.fileItems {
			items[i] = item
		}
		cmds = append(cmds, m.list.SetItems(items))
	}

	return m, tea.Batch(cmds...)
}

// View renders the header, file list, and counters footer.
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return "Initializing..."
	}

	headerLeft := fmt.Sprintf("Super Ebook Machine v%s", m.appVersion)
	headerRight := m.phaseMessage
	if m.finalState == "" {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	headerCenter := ""
	headerWidth := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerWidth > 0 {
		headerCenter = lipgloss.PlaceHorizontal(headerWidth, lipgloss.Center, " ")
	}
	header := HeaderStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, headerLeft, headerCenter, headerRight))

	elapsed := time.Since(m.startTime).Round(time.Millisecond)
	footerLeft := fmt.Sprintf(
		"Progress: %d/%d | OK: %d SKIP: %d FAIL: %d | Elapsed: %s",
		m.counters.Done, m.counters.Total,
		m.counters.OK, m.counters.Skip, m.counters.Fail,
		elapsed,
	)
	footerRight := "s: stop  q: quit"
	if m.stopPending && m.finalState == "" {
		footerRight = "stopping...  q: quit"
	}
	footerCenter := ""
	footerWidth := m.width - lipgloss.Width(footerLeft) - lipgloss.Width(footerRight)
	if footerWidth > 0 {
		footerCenter = lipgloss.PlaceHorizontal(footerWidth, lipgloss.Center, " ")
	}
	footer := FooterStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, footerLeft, footerCenter, footerRight))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.list.View(),
		footer,
	)
}

// findBySuffix locates a pending item whose relative path ends the given
// absolute one. Only pending rows are candidates so repeated names in
// different directories cannot steal each other's terminal result.
func (m *Model) findBySuffix(abs string) (int, bool) {
	normalized := filepath.ToSlash(abs)
	for idx, item := range m.fileItems {
		if item.status != statusPending {
			continue
		}
		if strings.HasSuffix(normalized, "/"+item.path) {
			return idx, true
		}
	}
	return 0, false
}

// Counters exposes the model's current aggregate counts.
func (m *Model) Counters() converter.RunCounters { return m.counters }

// FinalState reports the run's terminal state, or "" while still running.
func (m *Model) FinalState() converter.RunState { return m.finalState }

// --- list.Item implementation ---

func (i listItem) FilterValue() string { return i.path }

func (i listItem) Title() string { return i.path }

func (i listItem) Description() string {
	var statusStyle lipgloss.Style
	statusIcon := " "
	switch i.status {
	case converter.StatusSuccess:
		statusStyle = StatusStyleSuccess
		statusIcon = "✓"
	case converter.StatusFailed:
		statusStyle = StatusStyleFailed
		statusIcon = "✗"
	case converter.StatusSkipped:
		statusStyle = StatusStyleSkipped
		statusIcon = "S"
	default:
		statusStyle = StatusStylePending
	}

	statusStr := statusStyle.Render(fmt.Sprintf("[%s]", statusIcon))
	details := ""
	switch i.status {
	case converter.StatusFailed, converter.StatusSkipped:
		details = i.message
	case converter.StatusSuccess:
		details = formatMillis(i.millis)
	}
	return fmt.Sprintf("%s %s", statusStr, details)
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.2fs", float64(ms)/1000.0)
}

// --- list update debouncing ---

// UpdateListMsg signals that the list component should refresh its items.
type UpdateListMsg struct{}

const listUpdateDebounceDuration = 50 * time.Millisecond

// debounceListUpdate coalesces bursts of item changes into at most ~20 list
// refreshes per second.
func (m *Model) debounceListUpdate() tea.Cmd {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.NewTimer(listUpdateDebounceDuration)
	return func() tea.Msg {
		<-m.debounceTimer.C
		return UpdateListMsg{}
	}
}

// --- styles ---

const (
	ColorHeaderFg = lipgloss.Color("252")
	ColorHeaderBg = lipgloss.Color("62")

	ColorFooterFg = lipgloss.Color("252")
	ColorFooterBg = lipgloss.Color("56")

	ColorNormalFg     = lipgloss.Color("250")
	ColorNormalDescFg = lipgloss.Color("244")

	ColorSelectedFg     = lipgloss.Color("255")
	ColorSelectedBg     = lipgloss.Color("56")
	ColorSelectedDescFg = lipgloss.Color("248")

	ColorStatusSuccess = lipgloss.Color("40")
	ColorStatusFailed  = lipgloss.Color("196")
	ColorStatusSkipped = lipgloss.Color("214")
	ColorStatusPending = lipgloss.Color("244")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeaderFg).
			Background(ColorHeaderBg).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorFooterFg).
			Background(ColorFooterBg).
			Padding(0, 1)

	StatusStyleSuccess = lipgloss.NewStyle().Foreground(ColorStatusSuccess)
	StatusStyleFailed  = lipgloss.NewStyle().Foreground(ColorStatusFailed)
	StatusStyleSkipped = lipgloss.NewStyle().Foreground(ColorStatusSkipped)
	StatusStylePending = lipgloss.NewStyle().Foreground(ColorStatusPending)
)
