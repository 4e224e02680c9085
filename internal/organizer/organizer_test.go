package organizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
)

func writeMediaFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunOrganizesTree(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeMediaFiles(t, src, "Some.Show.S01E02.1080p.mkv", "Some.Movie.2019.1080p.mkv")

	stub := &stubClient{
		results: map[string][]tmdb.Result{
			"Some Show|0":     {{ID: 555, Name: "Some Show", FirstAirDate: "2021-03-01"}},
			"Some Movie|2019": {{ID: 603, Title: "Some Movie", ReleaseDate: "2019-07-04"}},
		},
	}
	org := New(stub, AutoFirst{}, logging.Nop())
	opts := Options{
		SourceDirs: []string{src},
		DestDir:    dest,
		FolderID:   "tmdb",
		Workers:    2,
	}

	sum, err := org.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Scanned != 2 || sum.Created != 2 || sum.Failed != 0 || sum.Unresolved != 0 {
		t.Fatalf("summary = %+v, want 2 scanned, 2 created", sum)
	}

	showLink := filepath.Join(dest, "CineSync", "Shows", "FullHD",
		"Some Show (2021) {tmdb-555}", "Season 1", "Some.Show.S01E02.1080p.mkv")
	if target, err := os.Readlink(showLink); err != nil || target != filepath.Join(src, "Some.Show.S01E02.1080p.mkv") {
		t.Errorf("show link = %q, %v", target, err)
	}
	movieLink := filepath.Join(dest, "CineSync", "Movies", "FullHD",
		"Some Movie (2019) {tmdb-603}", "Some.Movie.2019.1080p.mkv")
	if target, err := os.Readlink(movieLink); err != nil || target != filepath.Join(src, "Some.Movie.2019.1080p.mkv") {
		t.Errorf("movie link = %q, %v", target, err)
	}

	// A second run over the same trees finds every source already linked.
	sum, err = org.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.AlreadyLinked != 2 || sum.Created != 0 {
		t.Errorf("second run summary = %+v, want 2 already linked", sum)
	}
}

func TestRunDryRun(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	writeMediaFiles(t, src, "Some.Movie.2019.1080p.mkv")

	stub := &stubClient{
		results: map[string][]tmdb.Result{
			"Some Movie|2019": {{ID: 603, Title: "Some Movie", ReleaseDate: "2019-07-04"}},
		},
	}
	org := New(stub, AutoFirst{}, logging.Nop())

	sum, err := org.Run(context.Background(), Options{
		SourceDirs: []string{src},
		DestDir:    dest,
		DryRun:     true,
		Workers:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Created != 1 {
		t.Errorf("summary = %+v, want 1 created", sum)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("dry run wrote to the destination: %v", err)
	}
}

func TestRunSkipsExtrasWhenConfigured(t *testing.T) {
	src := t.TempDir()
	writeMediaFiles(t, filepath.Join(src, "Some Show S01"), "cover.jpg")

	stub := &stubClient{
		results: map[string][]tmdb.Result{
			"Some Show|0": {{ID: 555, Name: "Some Show", FirstAirDate: "2021-03-01"}},
		},
	}
	org := New(stub, AutoFirst{}, logging.Nop())

	sum, err := org.Run(context.Background(), Options{
		SourceDirs: []string{src},
		DestDir:    t.TempDir(),
		SkipExtras: true,
		Workers:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 1 || sum.Created != 0 {
		t.Fatalf("summary = %+v, want 1 skipped", sum)
	}
	if reason := sum.Items[0].SkipReason; reason != "extras suppressed" {
		t.Errorf("skip reason = %q", reason)
	}
}

func TestRunContainsPerItemFailures(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeMediaFiles(t, src, "Failing.Movie.mkv")
	// A regular file where the library root should be makes every
	// destination mkdir fail.
	if err := os.WriteFile(filepath.Join(dest, "CineSync"), []byte("in the way"), 0644); err != nil {
		t.Fatal(err)
	}

	org := New(&stubClient{}, AutoFirst{}, logging.Nop())
	sum, err := org.Run(context.Background(), Options{
		SourceDirs: []string{src},
		DestDir:    dest,
		Workers:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 1 || sum.Unresolved != 1 {
		t.Fatalf("summary = %+v, want 1 failed, 1 unresolved", sum)
	}
	if sum.Items[0].Err == nil {
		t.Error("failed item carries no error")
	}
}

func TestRunRequiresDestDir(t *testing.T) {
	org := New(&stubClient{}, AutoFirst{}, logging.Nop())
	if _, err := org.Run(context.Background(), Options{SourceDirs: []string{t.TempDir()}}); err == nil {
		t.Error("Run accepted an empty destination")
	}
}

func TestRunWithProgress(t *testing.T) {
	src := t.TempDir()
	writeMediaFiles(t, src, "Some.Show.S01E02.1080p.mkv", "Some.Movie.2019.1080p.mkv")

	stub := &stubClient{
		results: map[string][]tmdb.Result{
			"Some Show|0":     {{ID: 555, Name: "Some Show", FirstAirDate: "2021-03-01"}},
			"Some Movie|2019": {{ID: 603, Title: "Some Movie", ReleaseDate: "2019-07-04"}},
		},
	}
	org := New(stub, AutoFirst{}, logging.Nop())

	ch := make(chan Progress)
	var events []Progress
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			events = append(events, ev)
		}
	}()

	sum, err := org.RunWithProgress(context.Background(), Options{
		SourceDirs: []string{src},
		DestDir:    t.TempDir(),
		Workers:    1,
	}, ch)
	if err != nil {
		t.Fatal(err)
	}
	close(ch)
	<-done

	if len(events) != 4 {
		t.Fatalf("got %d progress events, want 4: %+v", len(events), events)
	}
	if events[0].Stage != "scanning" {
		t.Errorf("first event stage = %q", events[0].Stage)
	}
	if events[1].Stage != "organizing" || events[1].Current != 1 || events[1].Total != 2 {
		t.Errorf("second event = %+v", events[1])
	}
	last := events[len(events)-1]
	if last.Stage != "complete" || last.Percentage != 100.0 || last.Current != 2 {
		t.Errorf("final event = %+v", last)
	}
	if last.Created != sum.Created {
		t.Errorf("final event created = %d, summary created = %d", last.Created, sum.Created)
	}
}
