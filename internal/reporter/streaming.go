package reporter

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Nomadcxx/cinesync/internal/organizer"
)

// StreamingReporter appends item outcomes to a report file as they happen.
// The watch daemon uses it so a long-running session leaves a usable
// record even if the process dies mid-run.
type StreamingReporter struct {
	timestamp  time.Time
	sourceDirs []string
	destDir    string
	file       *os.File
	writer     *bufio.Writer

	created       int
	alreadyLinked int
	replaced      int
	skipped       int
	unresolved    int
	failed        int
}

// NewStreamingReporter creates a streaming reporter in the default report
// directory.
func NewStreamingReporter(sourceDirs []string, destDir string) (*StreamingReporter, error) {
	return NewStreamingReporterIn(DefaultDir(), sourceDirs, destDir)
}

// NewStreamingReporterIn is NewStreamingReporter with an explicit directory.
func NewStreamingReporterIn(dir string, sourceDirs []string, destDir string) (*StreamingReporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now()
	path := filepath.Join(dir, timestamp.Format("20060102_150405")+"_watch.txt")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	sr := &StreamingReporter{
		timestamp:  timestamp,
		sourceDirs: sourceDirs,
		destDir:    destDir,
		file:       file,
		writer:     bufio.NewWriter(file),
	}

	if err := sr.writeHeader(); err != nil {
		sr.Close()
		return nil, err
	}

	return sr, nil
}

// writeHeader writes the initial session header
func (sr *StreamingReporter) writeHeader() error {
	header := "CineSync Watch Session\n"
	header += fmt.Sprintf("Started: %s\n", sr.timestamp.Format(time.RFC1123))
	header += "Sources:\n"
	for _, path := range sr.sourceDirs {
		header += fmt.Sprintf("  - %s\n", path)
	}
	header += fmt.Sprintf("Destination: %s\n\n", sr.destDir)

	if _, err := sr.writer.WriteString(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return sr.writer.Flush()
}

// WriteItem appends one organized item and flushes immediately so the
// record survives an unclean shutdown.
func (sr *StreamingReporter) WriteItem(ctx context.Context, r organizer.ItemResult) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sr.count(r)

	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		r.Outcome, r.Source)
	if r.Dest != "" {
		line += fmt.Sprintf("    -> %s\n", r.Dest)
	}
	if !r.Resolved {
		line += "    (unresolved, original name kept)\n"
	}
	if r.SkipReason != "" {
		line += fmt.Sprintf("    (%s)\n", r.SkipReason)
	}
	if r.Err != nil {
		line += fmt.Sprintf("    ERROR: %v\n", r.Err)
	}

	if _, err := sr.writer.WriteString(line); err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return sr.writer.Flush()
}

func (sr *StreamingReporter) count(r organizer.ItemResult) {
	if !r.Resolved {
		sr.unresolved++
	}
	if r.Err != nil {
		sr.failed++
		return
	}
	switch r.Outcome {
	case organizer.OutcomeCreated:
		sr.created++
	case organizer.OutcomeAlreadyLinked:
		sr.alreadyLinked++
	case organizer.OutcomeReplaced:
		sr.replaced++
	case organizer.OutcomeSkipped:
		sr.skipped++
	}
}

// Finalize writes session totals and flushes.
func (sr *StreamingReporter) Finalize() error {
	summary := "\n=== Session Totals ===\n"
	summary += fmt.Sprintf("Links created:  %d\n", sr.created)
	summary += fmt.Sprintf("Already linked: %d\n", sr.alreadyLinked)
	summary += fmt.Sprintf("Links replaced: %d\n", sr.replaced)
	summary += fmt.Sprintf("Skipped:        %d\n", sr.skipped)
	summary += fmt.Sprintf("Unresolved:     %d\n", sr.unresolved)
	summary += fmt.Sprintf("Failed:         %d\n", sr.failed)

	if _, err := sr.writer.WriteString(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return sr.writer.Flush()
}

// Close closes the report file.
func (sr *StreamingReporter) Close() error {
	if sr.file == nil {
		return nil
	}
	if err := sr.file.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

// Path returns the path of the session report file.
func (sr *StreamingReporter) Path() string {
	return sr.file.Name()
}
