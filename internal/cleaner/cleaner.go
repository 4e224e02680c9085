package cleaner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

// Operation represents a single destructive step taken during a sweep,
// recorded so the manifest shows what actually happened.
type Operation struct {
	Type      string // "unlink" or "prunedir"
	Path      string
	Target    string // symlink target, empty for directory prunes
	Timestamp time.Time
	Completed bool
}

// Result summarizes one sweep of the destination tree.
type Result struct {
	LinksRemoved int
	DirsPruned   int
	Operations   []Operation
	Errors       []error
	DryRun       bool
}

// Config holds cleaner configuration.
type Config struct {
	DryRun         bool
	ProtectedPaths []string
	ManifestPath   string // deletion manifest, written next to the run reports
}

// DefaultConfig returns safe default configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ProtectedPaths: []string{
			// System directories
			"/usr", "/etc", "/bin", "/sbin", "/boot",
			"/sys", "/proc", "/dev", "/run",
			"/lib", "/lib32", "/lib64", "/libx32",
			"/var", "/opt", "/srv",
			"/root",
		},
		ManifestPath: filepath.Join(home, ".local/share/cinesync/cleaner.log"),
	}
}

type brokenLink struct {
	path   string
	target string
}

// Clean sweeps destRoot for symlinks whose targets no longer exist,
// removes them, and prunes directories left empty. Per-entry failures are
// collected in the result; only an unreadable root is fatal.
func Clean(destRoot string, config Config, log *logging.Logger) (Result, error) {
	result := Result{DryRun: config.DryRun}

	root, err := filepath.Abs(destRoot)
	if err != nil {
		return result, fmt.Errorf("resolving destination: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return result, fmt.Errorf("reading destination: %w", err)
	}

	for _, link := range findBrokenLinks(root) {
		if isProtectedPath(link.path, config.ProtectedPaths) {
			result.Errors = append(result.Errors,
				fmt.Errorf("refusing to remove protected path: %s", link.path))
			continue
		}

		op := Operation{
			Type:      "unlink",
			Path:      link.path,
			Target:    link.target,
			Timestamp: time.Now(),
		}

		if config.DryRun {
			op.Completed = true
			log.Info("cleaner", "would remove broken link",
				logging.F("path", link.path),
				logging.F("target", link.target))
		} else if err := os.Remove(link.path); err != nil {
			result.Errors = append(result.Errors,
				fmt.Errorf("failed to remove %s: %w", link.path, err))
		} else {
			op.Completed = true
			result.LinksRemoved++
			log.Info("cleaner", "removed broken link",
				logging.F("path", link.path),
				logging.F("target", link.target))
		}

		result.Operations = append(result.Operations, op)
	}

	if !config.DryRun {
		pruneEmptyDirs(root, config, &result, log)

		if len(result.Operations) > 0 {
			if err := writeManifest(result.Operations, config.ManifestPath); err != nil {
				result.Errors = append(result.Errors,
					fmt.Errorf("failed to write manifest: %w", err))
			}
		}
	}

	log.Info("cleaner", "sweep complete",
		logging.F("links_removed", result.LinksRemoved),
		logging.F("dirs_pruned", result.DirsPruned),
		logging.F("errors", len(result.Errors)),
		logging.F("dry_run", config.DryRun))
	return result, nil
}

// findBrokenLinks walks the tree collecting symlinks whose targets are
// gone. Stat follows the link, so relative targets resolve correctly.
func findBrokenLinks(root string) []brokenLink {
	var broken []brokenLink
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			target, _ := os.Readlink(path)
			broken = append(broken, brokenLink{path: path, target: target})
		}
		return nil
	})
	return broken
}

// pruneEmptyDirs removes directories left empty, deepest first so a chain
// of empties collapses in one pass. The root itself is never removed.
func pruneEmptyDirs(root string, config Config, result *Result, log *logging.Logger) {
	var dirs []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if isProtectedPath(dir, config.ProtectedPaths) {
			continue
		}
		if err := os.Remove(dir); err != nil {
			result.Errors = append(result.Errors,
				fmt.Errorf("failed to prune %s: %w", dir, err))
			continue
		}
		result.DirsPruned++
		result.Operations = append(result.Operations, Operation{
			Type:      "prunedir",
			Path:      dir,
			Timestamp: time.Now(),
			Completed: true,
		})
		log.Debug("cleaner", "pruned empty directory", logging.F("path", dir))
	}
}

// isProtectedPath checks if path is in protected list.
func isProtectedPath(path string, protected []string) bool {
	for _, p := range protected {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// writeManifest appends completed operations to the manifest file.
func writeManifest(ops []Operation, manifestPath string) error {
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(manifestPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, op := range ops {
		if !op.Completed {
			continue
		}

		line := fmt.Sprintf("%s|%s|%s|%s\n",
			op.Timestamp.Format(time.RFC3339),
			op.Type,
			op.Path,
			op.Target)

		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}
