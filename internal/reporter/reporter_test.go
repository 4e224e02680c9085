package reporter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nomadcxx/cinesync/internal/organizer"
)

func sampleSummary() *organizer.Summary {
	return &organizer.Summary{
		Scanned:       4,
		Created:       2,
		AlreadyLinked: 1,
		Skipped:       1,
		Unresolved:    1,
		Duration:      1500 * time.Millisecond,
		Items: []organizer.ItemResult{
			{
				Source:   "/src/Some.Show.S01E02.1080p.mkv",
				Dest:     "/dest/CineSync/Shows/FullHD/Some Show (2021)/Season 1/Some.Show.S01E02.1080p.mkv",
				Outcome:  organizer.OutcomeCreated,
				Resolved: true,
			},
			{
				Source:   "/src/Random.Movie.2020.mkv",
				Dest:     "/dest/CineSync/Movies/Movies/Random Movie (2020)/Random.Movie.2020.mkv",
				Outcome:  organizer.OutcomeCreated,
				Resolved: true,
			},
			{
				Source:   "/src/Old.Movie.mkv",
				Dest:     "/dest/CineSync/Movies/Movies/Old Movie/Old.Movie.mkv",
				Outcome:  organizer.OutcomeAlreadyLinked,
				Resolved: false,
			},
			{
				Source:     "/src/Occupied.mkv",
				Dest:       "/dest/CineSync/Movies/Movies/Occupied/Occupied.mkv",
				Outcome:    organizer.OutcomeSkipped,
				Resolved:   true,
				SkipReason: "destination occupied",
			},
		},
	}
}

func TestFromSummary(t *testing.T) {
	opts := organizer.Options{
		SourceDirs: []string{"/src"},
		DestDir:    "/dest",
		DryRun:     true,
	}

	report := FromSummary(sampleSummary(), opts)

	if report.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", report.Scanned)
	}
	if report.Created != 2 {
		t.Errorf("Created = %d, want 2", report.Created)
	}
	if !report.DryRun {
		t.Error("DryRun not carried over")
	}
	if len(report.Items) != 4 {
		t.Fatalf("len(Items) = %d, want 4", len(report.Items))
	}
	if report.Items[0].Outcome != "created" {
		t.Errorf("Items[0].Outcome = %q, want %q", report.Items[0].Outcome, "created")
	}
	if report.Items[3].SkipReason != "destination occupied" {
		t.Errorf("Items[3].SkipReason = %q, want %q", report.Items[3].SkipReason, "destination occupied")
	}
}

func TestFromSummaryItemError(t *testing.T) {
	sum := &organizer.Summary{
		Scanned: 1,
		Failed:  1,
		Items: []organizer.ItemResult{
			{Source: "/src/bad.mkv", Resolved: true, Err: errors.New("permission denied")},
		},
	}
	report := FromSummary(sum, organizer.Options{})
	if report.Items[0].Error != "permission denied" {
		t.Errorf("Error = %q, want %q", report.Items[0].Error, "permission denied")
	}
}

func TestBuildReportContent(t *testing.T) {
	report := FromSummary(sampleSummary(), organizer.Options{
		SourceDirs: []string{"/src"},
		DestDir:    "/dest",
	})
	report.Timestamp = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	content := buildReportContent(report)

	for _, want := range []string{
		"CINESYNC ORGANIZE REPORT",
		"Generated: 2026-03-14 09:30:00",
		"Sources: /src",
		"Links created:   2",
		"UNRESOLVED TITLES",
		"Old.Movie.mkv",
		"CREATED LINKS (DO NOT EDIT)",
		"/dest/CineSync/Shows/FullHD/Some Show (2021)/Season 1/Some.Show.S01E02.1080p.mkv",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report content missing %q", want)
		}
	}

	// Only created/replaced links appear in the machine-readable footer.
	footer := content[strings.Index(content, "CREATED LINKS"):]
	if strings.Contains(footer, "Old Movie") {
		t.Error("already-linked item leaked into the created links section")
	}
}

func TestGenerateAndLoad(t *testing.T) {
	dir := t.TempDir()
	report := FromSummary(sampleSummary(), organizer.Options{
		SourceDirs: []string{"/src"},
		DestDir:    "/dest",
	})

	path, err := GenerateIn(dir, report)
	if err != nil {
		t.Fatalf("GenerateIn failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("text report not written: %v", err)
	}

	loaded, err := LoadFile(filepath.Join(dir, "latest.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Created != report.Created {
		t.Errorf("loaded Created = %d, want %d", loaded.Created, report.Created)
	}
	if len(loaded.Items) != len(report.Items) {
		t.Errorf("loaded %d items, want %d", len(loaded.Items), len(report.Items))
	}
}

func TestUnresolvedSources(t *testing.T) {
	report := Report{
		Items: []Item{
			{Source: "/a/zeta.mkv", Resolved: false},
			{Source: "/b/alpha.mkv", Resolved: false},
			{Source: "/c/alpha.mkv", Resolved: false}, // duplicate base name
			{Source: "/d/fine.mkv", Resolved: true},
		},
	}

	names := UnresolvedSources(report)
	if len(names) != 2 {
		t.Fatalf("got %d unresolved names, want 2: %v", len(names), names)
	}
	if names[0] != "alpha.mkv" || names[1] != "zeta.mkv" {
		t.Errorf("unexpected order: %v", names)
	}
}
