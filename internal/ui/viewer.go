package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/cinesync/internal/reporter"
)

// ViewMode represents the current viewer screen
type ViewMode int

const (
	ViewSummary ViewMode = iota
	ViewItems
	ViewUnresolved
)

// Model is the report viewer TUI state
type Model struct {
	report   reporter.Report
	mode     ViewMode
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// NewModel creates a viewer over an organize run report
func NewModel(report reporter.Report) Model {
	return Model{report: report, mode: ViewSummary}
}

// Init initializes the viewer
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.mode != ViewSummary {
				m.mode = ViewSummary
				m.viewport.SetContent(m.renderSummary())
				return m, nil
			}
			return m, tea.Quit

		case "f1":
			m.mode = ViewItems
			m.viewport.SetContent(m.renderItems())
			m.viewport.GotoTop()
			return m, nil

		case "f2":
			m.mode = ViewUnresolved
			m.viewport.SetContent(m.renderUnresolved())
			m.viewport.GotoTop()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4) // Leave room for header/footer
			m.viewport.SetContent(m.renderSummary())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

		return m, nil
	}

	// Handle viewport updates (scrolling)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the viewer
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var header string
	var footer string

	switch m.mode {
	case ViewSummary:
		header = FormatHeader("CINESYNC ORGANIZE REPORT")
		footer = FormatFooter(
			FormatKeybinding("F1", "Items"),
			FormatKeybinding("F2", "Unresolved"),
			FormatKeybinding("Esc", "Exit"),
		)

	case ViewItems:
		header = FormatHeader("ORGANIZED ITEMS (DETAILED)")
		scrollInfo := fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		footer = FormatFooter(
			FormatKeybinding("↑↓", "Scroll"),
			FormatKeybinding("PgUp/PgDn", "Page"),
			FormatKeybinding("Esc", "Back"),
			MutedStyle.Render(scrollInfo),
		)

	case ViewUnresolved:
		header = FormatHeader("UNRESOLVED TITLES")
		footer = FormatFooter(
			FormatKeybinding("↑↓", "Scroll"),
			FormatKeybinding("Esc", "Back"),
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.viewport.View(),
		footer,
	)
}

// renderSummary renders the summary view
func (m Model) renderSummary() string {
	var sb strings.Builder

	sb.WriteString(FormatASCIIHeader() + "\n\n")

	sb.WriteString(InfoStyle.Render("Generated: ") + ContentStyle.Render(m.report.Timestamp.Format("2006-01-02 15:04:05")) + "\n")
	sb.WriteString(InfoStyle.Render("Sources: ") + ContentStyle.Render(strings.Join(m.report.SourceDirs, ", ")) + "\n")
	sb.WriteString(InfoStyle.Render("Destination: ") + ContentStyle.Render(m.report.DestDir) + "\n")
	sb.WriteString(InfoStyle.Render("Duration: ") + ContentStyle.Render(m.report.Duration) + "\n")
	if m.report.DryRun {
		sb.WriteString(WarningStyle.Render("DRY RUN — no links were created") + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(TitleStyle.Render("RESULTS") + "\n")
	sb.WriteString(InfoStyle.Render("Files scanned: ") + StatStyle.Render(fmt.Sprintf("%d", m.report.Scanned)) + "\n")
	sb.WriteString(InfoStyle.Render("Links created: ") + StatStyle.Render(fmt.Sprintf("%d", m.report.Created)) + "\n")
	sb.WriteString(InfoStyle.Render("Already linked: ") + StatStyle.Render(fmt.Sprintf("%d", m.report.AlreadyLinked)) + "\n")
	sb.WriteString(InfoStyle.Render("Links replaced: ") + StatStyle.Render(fmt.Sprintf("%d", m.report.Replaced)) + "\n")
	sb.WriteString(InfoStyle.Render("Skipped: ") + StatStyle.Render(fmt.Sprintf("%d", m.report.Skipped)) + "\n")
	sb.WriteString(InfoStyle.Render("Failed: ") + StatStyle.Render(fmt.Sprintf("%d", m.report.Failed)) + "\n\n")

	unresolved := reporter.UnresolvedSources(m.report)
	if len(unresolved) > 0 {
		sb.WriteString(TitleStyle.Render("UNRESOLVED") + "\n")
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("%d title(s) never matched a provider candidate.", len(unresolved))) + "\n")
		sb.WriteString(InfoStyle.Render("Press F2 to review them.") + "\n\n")

		limit := 5
		if len(unresolved) < limit {
			limit = len(unresolved)
		}
		sb.WriteString(MutedStyle.Render("First examples:") + "\n")
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("  %s %s\n",
				WarningStyle.Render(fmt.Sprintf("%d.", i+1)),
				ContentStyle.Render(unresolved[i])))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderItems renders the per-item detail view
func (m Model) renderItems() string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("ORGANIZED ITEMS") + "\n\n")

	if len(m.report.Items) == 0 {
		sb.WriteString(MutedStyle.Render("No items in this run.") + "\n")
		return sb.String()
	}

	for _, item := range m.report.Items {
		marker := markerFor(item)
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, ContentStyle.Render(filepath.Base(item.Source))))
		sb.WriteString("  " + MutedStyle.Render(item.Source) + "\n")
		if item.Dest != "" {
			sb.WriteString("  " + InfoStyle.Render("→ ") + ContentStyle.Render(item.Dest) + "\n")
		}
		if item.SkipReason != "" {
			sb.WriteString("  " + WarningStyle.Render(item.SkipReason) + "\n")
		}
		if item.Error != "" {
			sb.WriteString("  " + ErrorStyle.Render(item.Error) + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func markerFor(item reporter.Item) string {
	if item.Error != "" {
		return ErrorStyle.Render("FAILED: ")
	}
	switch item.Outcome {
	case "created":
		return SuccessStyle.Render("CREATED:")
	case "replaced":
		return SuccessStyle.Render("REPLACED:")
	case "already linked":
		return InfoStyle.Render("LINKED: ")
	default:
		return WarningStyle.Render("SKIPPED:")
	}
}

// renderUnresolved renders the unresolved titles view
func (m Model) renderUnresolved() string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("TITLES WITHOUT A PROVIDER MATCH") + "\n\n")

	unresolved := reporter.UnresolvedSources(m.report)
	if len(unresolved) == 0 {
		sb.WriteString(SuccessStyle.Render("✓ Every item matched a provider candidate") + "\n")
		return sb.String()
	}

	sb.WriteString(InfoStyle.Render(fmt.Sprintf("%d title(s) were placed under their original names:", len(unresolved))) + "\n\n")

	for i, name := range unresolved {
		sb.WriteString(fmt.Sprintf("%s %s\n",
			WarningStyle.Render(fmt.Sprintf("%d.", i+1)),
			ContentStyle.Render(name)))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedStyle.Render("Rename the source files to include a clean title and year, then organize again.") + "\n")

	return sb.String()
}
