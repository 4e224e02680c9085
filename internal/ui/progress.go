package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nomadcxx/cinesync/internal/organizer"
)

// ProgressMsg carries one organizer progress event into the TUI.
type ProgressMsg organizer.Progress

// DoneMsg signals that the organize run finished.
type DoneMsg struct {
	Err error
}

// logLine is one entry in the scrolling activity log
type logLine struct {
	elapsed string
	message string
}

// ProgressModel renders a live organize run: progress bar, outcome
// counters and the most recent activity. The run itself happens in a
// goroutine owned by the caller, which forwards events via Send.
type ProgressModel struct {
	cancel func()

	current  int
	total    int
	percent  float64
	message  string
	created  int
	linked   int
	replaced int
	skipped  int
	failed   int

	lines     []logLine
	done      bool
	cancelled bool
	err       error
	width     int
}

// NewProgressModel creates a progress view. cancel is invoked when the
// user interrupts the run.
func NewProgressModel(cancel func()) ProgressModel {
	return ProgressModel{cancel: cancel, width: 80}
}

// Init initializes the progress view
func (m ProgressModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.current = msg.Current
		m.total = msg.Total
		m.percent = msg.Percentage
		if msg.Message != "" {
			m.message = msg.Message
			m.lines = append(m.lines, logLine{
				elapsed: fmt.Sprintf("%02d:%02d", msg.ElapsedSeconds/60, msg.ElapsedSeconds%60),
				message: msg.Message,
			})
			if len(m.lines) > 200 {
				m.lines = m.lines[len(m.lines)-200:]
			}
		}
		m.created = msg.Created
		m.linked = msg.AlreadyLinked
		m.replaced = msg.Replaced
		m.skipped = msg.Skipped
		m.failed = msg.Failed
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}

	return m, nil
}

// View renders the progress view
func (m ProgressModel) View() string {
	var sb strings.Builder

	sb.WriteString(FormatASCIIHeader() + "\n\n")

	sb.WriteString(renderProgressBar(m.percent, 50) + "\n")
	if m.total > 0 {
		sb.WriteString(fmt.Sprintf("  %d/%d files  %.1f%%\n\n", m.current, m.total, m.percent))
	} else {
		sb.WriteString(MutedStyle.Render("  scanning sources...") + "\n\n")
	}

	sb.WriteString(
		SuccessStyle.Render(fmt.Sprintf("created %d", m.created)) + MutedStyle.Render("  |  ") +
			InfoStyle.Render(fmt.Sprintf("linked %d", m.linked)) + MutedStyle.Render("  |  ") +
			InfoStyle.Render(fmt.Sprintf("replaced %d", m.replaced)) + MutedStyle.Render("  |  ") +
			WarningStyle.Render(fmt.Sprintf("skipped %d", m.skipped)) + MutedStyle.Render("  |  ") +
			ErrorStyle.Render(fmt.Sprintf("failed %d", m.failed)) + "\n\n")

	sb.WriteString(TitleStyle.Render("ACTIVITY") + "\n")
	sb.WriteString(MutedStyle.Render(strings.Repeat("─", 80)) + "\n")

	startIdx := 0
	if len(m.lines) > 15 {
		startIdx = len(m.lines) - 15
	}
	for i := startIdx; i < len(m.lines); i++ {
		entry := m.lines[i]
		sb.WriteString(MutedStyle.Render(entry.elapsed) + " " + ContentStyle.Render(entry.message) + "\n")
	}

	if m.cancelled {
		sb.WriteString("\n" + ErrorStyle.Render("Cancelling — waiting for in-flight items...") + "\n")
	}
	sb.WriteString("\n" + FormatFooter(FormatKeybinding("Ctrl+C", "Cancel run")))

	return sb.String()
}

// Err returns the run error, if any.
func (m ProgressModel) Err() error {
	return m.err
}

// renderProgressBar creates a text-based progress bar
func renderProgressBar(percent float64, width int) string {
	filled := int((percent / 100.0) * float64(width))
	if filled > width {
		filled = width
	}

	bar := "["
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += " "
		}
	}
	bar += "]"

	return SuccessStyle.Render(bar)
}
