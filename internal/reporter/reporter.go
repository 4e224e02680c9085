package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Nomadcxx/cinesync/internal/organizer"
)

// Item records the fate of one source file in a run.
type Item struct {
	Source     string `json:"source"`
	Dest       string `json:"dest,omitempty"`
	Outcome    string `json:"outcome"`
	Resolved   bool   `json:"resolved"`
	SkipReason string `json:"skip_reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report represents one organize run: where it read from, where it wrote
// to, and what happened to every item.
type Report struct {
	Timestamp  time.Time `json:"timestamp"`
	SourceDirs []string  `json:"source_dirs"`
	DestDir    string    `json:"dest_dir"`
	DryRun     bool      `json:"dry_run"`
	Duration   string    `json:"duration"`

	Scanned       int `json:"scanned"`
	Created       int `json:"created"`
	AlreadyLinked int `json:"already_linked"`
	Replaced      int `json:"replaced"`
	Skipped       int `json:"skipped"`
	Unresolved    int `json:"unresolved"`
	Failed        int `json:"failed"`

	Items []Item `json:"items"`
}

// FromSummary converts an organizer summary into a report.
func FromSummary(sum *organizer.Summary, opts organizer.Options) Report {
	report := Report{
		Timestamp:     time.Now(),
		SourceDirs:    opts.SourceDirs,
		DestDir:       opts.DestDir,
		DryRun:        opts.DryRun,
		Duration:      sum.Duration.Round(time.Millisecond).String(),
		Scanned:       sum.Scanned,
		Created:       sum.Created,
		AlreadyLinked: sum.AlreadyLinked,
		Replaced:      sum.Replaced,
		Skipped:       sum.Skipped,
		Unresolved:    sum.Unresolved,
		Failed:        sum.Failed,
	}
	if opts.SinglePath != "" {
		report.SourceDirs = []string{opts.SinglePath}
	}
	for _, r := range sum.Items {
		report.Items = append(report.Items, itemFromResult(r))
	}
	return report
}

func itemFromResult(r organizer.ItemResult) Item {
	item := Item{
		Source:     r.Source,
		Dest:       r.Dest,
		Outcome:    r.Outcome.String(),
		Resolved:   r.Resolved,
		SkipReason: r.SkipReason,
	}
	if r.Err != nil {
		item.Error = r.Err.Error()
	}
	return item
}

// Generate writes a timestamped text report plus a latest.json snapshot
// for the TUI viewer, returning the text report path.
func Generate(report Report) (string, error) {
	return GenerateIn(DefaultDir(), report)
}

// GenerateIn is Generate with an explicit report directory.
func GenerateIn(dir string, report Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := report.Timestamp.Format("20060102_150405")
	filename := filepath.Join(dir, timestamp+".txt")

	if err := os.WriteFile(filename, []byte(buildReportContent(report)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "latest.json"), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write latest.json: %w", err)
	}

	return filename, nil
}

// DefaultDir returns the run report directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/cinesync/run_reports"
	}
	return filepath.Join(home, ".local/share/cinesync/run_reports")
}

// LoadLatest reads the most recent report snapshot.
func LoadLatest() (Report, error) {
	return LoadFile(filepath.Join(DefaultDir(), "latest.json"))
}

// LoadFile reads a report snapshot from an explicit path.
func LoadFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("failed to parse report: %w", err)
	}
	return report, nil
}

// buildReportContent generates the report text
func buildReportContent(report Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("CINESYNC ORGANIZE REPORT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n", report.Timestamp.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Sources: %s\n", strings.Join(report.SourceDirs, ", ")))
	sb.WriteString(fmt.Sprintf("Destination: %s\n", report.DestDir))
	if report.DryRun {
		sb.WriteString("Mode: DRY RUN (no links were created)\n")
	}
	sb.WriteString(fmt.Sprintf("Duration: %s\n", report.Duration))
	sb.WriteString("\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Files scanned:   %d\n", report.Scanned))
	sb.WriteString(fmt.Sprintf("Links created:   %d\n", report.Created))
	sb.WriteString(fmt.Sprintf("Already linked:  %d\n", report.AlreadyLinked))
	sb.WriteString(fmt.Sprintf("Links replaced:  %d\n", report.Replaced))
	sb.WriteString(fmt.Sprintf("Skipped:         %d\n", report.Skipped))
	sb.WriteString(fmt.Sprintf("Unresolved:      %d\n", report.Unresolved))
	sb.WriteString(fmt.Sprintf("Failed:          %d\n", report.Failed))
	sb.WriteString("\n")

	// Unresolved titles
	if unresolved := UnresolvedSources(report); len(unresolved) > 0 {
		sb.WriteString("UNRESOLVED TITLES\n")
		sb.WriteString(strings.Repeat("=", 80) + "\n")
		for i, name := range unresolved {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
		}
		sb.WriteString("\n")
	}

	// Per-item detail
	if len(report.Items) > 0 {
		sb.WriteString("ITEMS (DETAILED)\n")
		sb.WriteString(strings.Repeat("=", 80) + "\n")
		for _, item := range report.Items {
			sb.WriteString(formatItem(item))
		}
		sb.WriteString("\n")
	}

	// Footer with created links (machine-readable section)
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString("CREATED LINKS (DO NOT EDIT)\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	for _, item := range report.Items {
		if item.Outcome == "created" || item.Outcome == "replaced" {
			sb.WriteString(item.Dest + "\n")
		}
	}

	return sb.String()
}

// formatItem formats one item for the detailed section
func formatItem(item Item) string {
	var sb strings.Builder

	marker := strings.ToUpper(item.Outcome)
	if item.Error != "" {
		marker = "FAILED"
	}

	sb.WriteString(fmt.Sprintf("[%s] %s\n", marker, filepath.Base(item.Source)))
	sb.WriteString(fmt.Sprintf("  Source: %s\n", item.Source))
	if item.Dest != "" {
		sb.WriteString(fmt.Sprintf("  Dest:   %s\n", item.Dest))
	}
	if !item.Resolved {
		sb.WriteString("  Note:   metadata unresolved, original name kept\n")
	}
	if item.SkipReason != "" {
		sb.WriteString(fmt.Sprintf("  Reason: %s\n", item.SkipReason))
	}
	if item.Error != "" {
		sb.WriteString(fmt.Sprintf("  Error:  %s\n", item.Error))
	}

	return sb.String()
}

// UnresolvedSources lists the base names of items that never matched a
// provider candidate, sorted for stable output.
func UnresolvedSources(report Report) []string {
	seen := make(map[string]bool)
	var names []string
	for _, item := range report.Items {
		if item.Resolved {
			continue
		}
		name := filepath.Base(item.Source)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
