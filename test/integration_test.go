package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/organizer"
	"github.com/Nomadcxx/cinesync/internal/reporter"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
)

// newStubTMDB serves just enough of the TMDb surface for the pipeline:
// search for one show and one movie, external IDs, and episode naming.
func newStubTMDB(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("encoding stub response: %v", err)
		}
	}

	mux.HandleFunc("/search/tv", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "Some Show" {
			writeJSON(w, map[string]any{"results": []map[string]any{
				{"id": 555, "name": "Some Show", "first_air_date": "2021-05-01", "overview": "A show."},
			}})
			return
		}
		writeJSON(w, map[string]any{"results": []any{}})
	})
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "Inception" {
			writeJSON(w, map[string]any{"results": []map[string]any{
				{"id": 777, "title": "Inception", "release_date": "2010-07-16"},
			}})
			return
		}
		writeJSON(w, map[string]any{"results": []any{}})
	})
	mux.HandleFunc("/tv/555/external_ids", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("/movie/777/external_ids", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("/tv/555/season/1/episode/2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"name": "Pilot Part 2"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStubClient(t *testing.T) *tmdb.Client {
	t.Helper()
	srv := newStubTMDB(t)
	client := tmdb.NewClient("test-key", "en", logging.Nop())
	client.BaseURL = srv.URL
	client.WebBaseURL = srv.URL
	return client
}

func writeSourceFile(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating source dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		t.Fatalf("creating source file: %v", err)
	}
	return path
}

func TestOrganizeEndToEnd(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "downloads")
	destDir := filepath.Join(tmp, "library")

	showSrc := writeSourceFile(t, srcDir, "Some.Show.S01E02.1080p.mkv")
	movieSrc := writeSourceFile(t, srcDir, "Inception.2010.1080p.BluRay.mkv")

	org := organizer.New(newStubClient(t), organizer.AutoFirst{}, logging.Nop())
	sum, err := org.Run(context.Background(), organizer.Options{
		SourceDirs: []string{srcDir},
		DestDir:    destDir,
		AutoSelect: true,
		Rename:     true,
		FolderID:   "tmdb",
		Workers:    2,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sum.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", sum.Scanned)
	}
	if sum.Created != 2 {
		t.Errorf("Created = %d, want 2", sum.Created)
	}
	if sum.Unresolved != 0 {
		t.Errorf("Unresolved = %d, want 0", sum.Unresolved)
	}

	showDest := filepath.Join(destDir, "CineSync", "Shows", "FullHD",
		"Some Show (2021) {tmdb-555}", "Season 1",
		"Some Show - S01E02 - Pilot Part 2.mkv")
	assertSymlink(t, showDest, showSrc)

	movieDest := filepath.Join(destDir, "CineSync", "Movies", "FullHD",
		"Inception (2010) {tmdb-777}", "Inception (2010) {tmdb-777}.mkv")
	assertSymlink(t, movieDest, movieSrc)
}

func TestOrganizeIdempotent(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "downloads")
	destDir := filepath.Join(tmp, "library")
	writeSourceFile(t, srcDir, "Some.Show.S01E02.1080p.mkv")

	org := organizer.New(newStubClient(t), organizer.AutoFirst{}, logging.Nop())
	opts := organizer.Options{
		SourceDirs: []string{srcDir},
		DestDir:    destDir,
		AutoSelect: true,
		FolderID:   "tmdb",
		Workers:    1,
	}

	if _, err := org.Run(context.Background(), opts); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	sum, err := org.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if sum.Created != 0 {
		t.Errorf("second run Created = %d, want 0", sum.Created)
	}
	if sum.AlreadyLinked != 1 {
		t.Errorf("second run AlreadyLinked = %d, want 1", sum.AlreadyLinked)
	}
}

func TestOrganizeDryRun(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "downloads")
	destDir := filepath.Join(tmp, "library")
	writeSourceFile(t, srcDir, "Inception.2010.1080p.mkv")

	org := organizer.New(newStubClient(t), organizer.AutoFirst{}, logging.Nop())
	sum, err := org.Run(context.Background(), organizer.Options{
		SourceDirs: []string{srcDir},
		DestDir:    destDir,
		DryRun:     true,
		AutoSelect: true,
		FolderID:   "tmdb",
		Workers:    1,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sum.Created != 1 {
		t.Errorf("Created = %d, want 1", sum.Created)
	}
	if _, err := os.Stat(filepath.Join(destDir, "CineSync")); !os.IsNotExist(err) {
		t.Errorf("dry run wrote to the library tree")
	}
}

func TestOrganizeUnresolvedStillPlaced(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "downloads")
	destDir := filepath.Join(tmp, "library")
	writeSourceFile(t, srcDir, "Zxqw.Blorp.1080p.mkv")

	opts := organizer.Options{
		SourceDirs: []string{srcDir},
		DestDir:    destDir,
		AutoSelect: true,
		FolderID:   "tmdb",
		Workers:    1,
	}
	org := organizer.New(newStubClient(t), organizer.AutoFirst{}, logging.Nop())
	sum, err := org.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sum.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", sum.Unresolved)
	}
	// Unresolved items still land in the library under the raw title so
	// they are browsable; the report surfaces them for manual review.
	if sum.Created != 1 {
		t.Errorf("Created = %d, want 1", sum.Created)
	}

	report := reporter.FromSummary(sum, opts)
	unresolved := reporter.UnresolvedSources(report)
	if len(unresolved) != 1 || unresolved[0] != "Zxqw.Blorp.1080p.mkv" {
		t.Errorf("UnresolvedSources = %v, want the source file", unresolved)
	}
}

func TestOrganizeReportRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "downloads")
	destDir := filepath.Join(tmp, "library")
	reportDir := filepath.Join(tmp, "reports")
	writeSourceFile(t, srcDir, "Some.Show.S01E02.1080p.mkv")

	opts := organizer.Options{
		SourceDirs: []string{srcDir},
		DestDir:    destDir,
		AutoSelect: true,
		FolderID:   "tmdb",
		Workers:    1,
	}
	org := organizer.New(newStubClient(t), organizer.AutoFirst{}, logging.Nop())
	sum, err := org.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report := reporter.FromSummary(sum, opts)
	if _, err := reporter.GenerateIn(reportDir, report); err != nil {
		t.Fatalf("GenerateIn failed: %v", err)
	}

	loaded, err := reporter.LoadFile(filepath.Join(reportDir, "latest.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Created != sum.Created {
		t.Errorf("loaded Created = %d, want %d", loaded.Created, sum.Created)
	}
	if len(loaded.Items) != len(sum.Items) {
		t.Errorf("loaded %d items, want %d", len(loaded.Items), len(sum.Items))
	}
}

func TestOrganizeCancelledContext(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "downloads")
	for i := 1; i <= 20; i++ {
		writeSourceFile(t, srcDir, fmt.Sprintf("Some.Show.S01E%02d.1080p.mkv", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	org := organizer.New(newStubClient(t), organizer.AutoFirst{}, logging.Nop())
	_, err := org.Run(ctx, organizer.Options{
		SourceDirs: []string{srcDir},
		DestDir:    filepath.Join(tmp, "library"),
		AutoSelect: true,
		Workers:    2,
	})
	if err != context.Canceled {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func assertSymlink(t *testing.T, dest, source string) {
	t.Helper()
	info, err := os.Lstat(dest)
	if err != nil {
		t.Fatalf("destination %s missing: %v", dest, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("destination %s is not a symlink", dest)
	}
	target, err := os.Readlink(dest)
	if err != nil {
		t.Fatalf("reading link %s: %v", dest, err)
	}
	if target != source {
		t.Errorf("link target = %s, want %s", target, source)
	}
}
