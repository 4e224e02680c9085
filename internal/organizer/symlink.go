package organizer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

// Materializer places symlinks at resolved destinations. It never touches
// the source tree and backs off from anything at the destination it did
// not create itself.
type Materializer struct {
	index  *Index
	dryRun bool
	log    *logging.Logger
}

// NewMaterializer creates a materializer over the given destination index.
func NewMaterializer(index *Index, dryRun bool, log *logging.Logger) *Materializer {
	return &Materializer{index: index, dryRun: dryRun, log: log}
}

// Materialize links source into dest, creating parent directories as
// needed. The outcome reports what actually happened on disk; calling it
// again with the same arguments is a no-op.
func (m *Materializer) Materialize(source, dest string) (Outcome, error) {
	if linked, ok := m.index.LinkedDest(source); ok {
		m.log.Debug("symlink", "source already in library",
			logging.F("source", source),
			logging.F("existing", linked))
		return OutcomeAlreadyLinked, nil
	}

	if info, err := os.Lstat(dest); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			m.log.Warn("symlink", "destination exists and is not a symlink",
				logging.F("dest", dest))
			return OutcomeSkipped, nil
		}

		target, err := os.Readlink(dest)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("reading existing link: %w", err)
		}
		if target == source {
			return OutcomeAlreadyLinked, nil
		}

		if m.dryRun {
			m.log.Info("symlink", "would replace link",
				logging.F("dest", dest),
				logging.F("old", target),
				logging.F("new", source))
			return OutcomeReplaced, nil
		}
		if err := os.Remove(dest); err != nil {
			return OutcomeSkipped, fmt.Errorf("removing stale link: %w", err)
		}
		if err := os.Symlink(source, dest); err != nil {
			return OutcomeSkipped, fmt.Errorf("creating link: %w", err)
		}
		m.log.Info("symlink", "replaced link",
			logging.F("dest", dest),
			logging.F("source", source))
		return OutcomeReplaced, nil
	}

	if m.dryRun {
		m.log.Info("symlink", "would create link",
			logging.F("source", source),
			logging.F("dest", dest))
		return OutcomeCreated, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return OutcomeSkipped, fmt.Errorf("creating destination directory: %w", err)
	}

	srcInfo, err := os.Lstat(source)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("reading source: %w", err)
	}
	if srcInfo.IsDir() {
		if err := copyTree(source, dest); err != nil {
			return OutcomeSkipped, fmt.Errorf("copying directory: %w", err)
		}
		m.log.Info("symlink", "copied directory",
			logging.F("source", source),
			logging.F("dest", dest))
		return OutcomeCreated, nil
	}

	if err := os.Symlink(source, dest); err != nil {
		return OutcomeSkipped, fmt.Errorf("creating link: %w", err)
	}
	m.log.Info("symlink", "created link",
		logging.F("source", source),
		logging.F("dest", dest))
	return OutcomeCreated, nil
}

// copyTree mirrors a directory into dest, preserving symlinks rather
// than following them.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			linked, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linked, target)
		default:
			return copyFile(path, target)
		}
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
