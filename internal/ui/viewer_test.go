package ui_test

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nomadcxx/cinesync/internal/reporter"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
	"github.com/Nomadcxx/cinesync/internal/ui"
)

func sampleReport() reporter.Report {
	return reporter.Report{
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		SourceDirs: []string{"/src"},
		DestDir:    "/dest",
		Duration:   "1.5s",
		Scanned:    2,
		Created:    1,
		Unresolved: 1,
		Items: []reporter.Item{
			{
				Source:   "/src/Some.Show.S01E02.mkv",
				Dest:     "/dest/CineSync/Shows/Shows/Some Show (2021)/Season 1/Some.Show.S01E02.mkv",
				Outcome:  "created",
				Resolved: true,
			},
			{
				Source:   "/src/Mystery.File.mkv",
				Dest:     "/dest/CineSync/Movies/Movies/Mystery File/Mystery.File.mkv",
				Outcome:  "created",
				Resolved: false,
			},
		},
	}
}

func TestViewerSummaryShowsCounts(t *testing.T) {
	m := ui.NewModel(sampleReport())

	ret, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := ret.(ui.Model).View()

	if !strings.Contains(view, "2026-03-14 09:30:00") {
		t.Error("summary view missing timestamp")
	}
	if !strings.Contains(view, "/dest") {
		t.Error("summary view missing destination")
	}
	if !strings.Contains(view, "Mystery.File.mkv") {
		t.Error("summary view missing unresolved example")
	}
}

func TestViewerSwitchesToItems(t *testing.T) {
	m := ui.NewModel(sampleReport())

	ret, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	ret, _ = ret.(ui.Model).Update(tea.KeyMsg{Type: tea.KeyF1})
	view := ret.(ui.Model).View()

	if !strings.Contains(view, "Some.Show.S01E02.mkv") {
		t.Error("items view missing item source")
	}
	if !strings.Contains(view, "Season 1") {
		t.Error("items view missing destination path")
	}
}

func TestViewerEscReturnsToSummary(t *testing.T) {
	m := ui.NewModel(sampleReport())

	ret, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	ret, _ = ret.(ui.Model).Update(tea.KeyMsg{Type: tea.KeyF2})
	ret, cmd := ret.(ui.Model).Update(tea.KeyMsg{Type: tea.KeyEsc})

	if cmd != nil {
		t.Error("esc from a detail view should not quit")
	}
	view := ret.(ui.Model).View()
	if !strings.Contains(view, "RESULTS") && !strings.Contains(view, "Files scanned") {
		t.Error("esc did not return to the summary view")
	}
}

func TestPickerChoice(t *testing.T) {
	candidates := []tmdb.Result{
		{ID: 1, Title: "The Matrix", ReleaseDate: "1999-03-31"},
		{ID: 2, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15"},
	}

	m := ui.NewPickerModel("the matrix", candidates)

	// Move down one and select the second candidate.
	ret, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	ret, _ = ret.(ui.PickerModel).Update(tea.KeyMsg{Type: tea.KeyEnter})

	if choice := ret.(ui.PickerModel).Choice(); choice != 2 {
		t.Errorf("Choice() = %d, want 2", choice)
	}
}

func TestPickerTitleCasesQuery(t *testing.T) {
	candidates := []tmdb.Result{
		{ID: 1, Title: "The Matrix", ReleaseDate: "1999-03-31"},
	}

	m := ui.NewPickerModel("some lowercase query", candidates)

	if view := m.View(); !strings.Contains(view, "Some Lowercase Query") {
		t.Errorf("picker title did not case the query:\n%s", view)
	}
}

func TestPickerDecline(t *testing.T) {
	candidates := []tmdb.Result{
		{ID: 1, Title: "Solo Match", ReleaseDate: "2010-01-01"},
	}

	m := ui.NewPickerModel("solo match", candidates)
	ret, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if choice := ret.(ui.PickerModel).Choice(); choice != 0 {
		t.Errorf("Choice() after esc = %d, want 0", choice)
	}
}
