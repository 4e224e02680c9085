package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/cinesync/internal/organizer"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
)

// candidateItem wraps a provider result for the picker list
type candidateItem struct {
	result tmdb.Result
}

func (i candidateItem) Title() string {
	title := i.result.DisplayTitle()
	if year := i.result.Year(); year > 0 {
		title = fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

func (i candidateItem) Description() string {
	overview := strings.TrimSpace(i.result.Overview)
	if overview == "" {
		return fmt.Sprintf("tmdb id %d", i.result.ID)
	}
	if len(overview) > 100 {
		overview = overview[:97] + "..."
	}
	return overview
}

func (i candidateItem) FilterValue() string { return i.result.DisplayTitle() }

// PickerModel presents provider candidates for one ambiguous query.
// Enter picks the highlighted candidate; Esc or q declines, which the
// resolver treats as unresolved.
type PickerModel struct {
	list   list.Model
	query  string
	choice int // 1-based; 0 = declined
	done   bool
}

// NewPickerModel creates a picker over the given candidates.
func NewPickerModel(query string, candidates []tmdb.Result) PickerModel {
	items := make([]list.Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, candidateItem{result: c})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(ReelBackground).
		Background(ReelAmber).
		Bold(true)
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().
		Foreground(ReelBackground).
		Background(ReelGold)
	delegate.Styles.NormalTitle = lipgloss.NewStyle().
		Foreground(ReelForeground)
	delegate.Styles.NormalDesc = lipgloss.NewStyle().
		Foreground(ReelMuted)

	l := list.New(items, delegate, 80, 14)
	l.Title = fmt.Sprintf("MULTIPLE MATCHES: %s", organizer.DisplayTitle(query))
	l.Styles.Title = TitleStyle
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	return PickerModel{list: l, query: query}
}

// Init initializes the picker
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles picker messages
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.choice = 0
			m.done = true
			return m, tea.Quit

		case "enter":
			m.choice = m.list.Index() + 1
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the picker
func (m PickerModel) View() string {
	if m.done {
		return ""
	}
	footer := FormatFooter(
		FormatKeybinding("↑↓", "Navigate"),
		FormatKeybinding("Enter", "Select"),
		FormatKeybinding("Esc", "Skip (leave unresolved)"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

// Choice returns the 1-based selection, or 0 when declined.
func (m PickerModel) Choice() int {
	return m.choice
}

// RunPicker shows the candidate picker and blocks until the user chooses
// or declines. Returns a 1-based index, 0 on decline or TUI failure.
func RunPicker(query string, candidates []tmdb.Result) int {
	p := tea.NewProgram(NewPickerModel(query, candidates))
	final, err := p.Run()
	if err != nil {
		return 0
	}
	return final.(PickerModel).Choice()
}
