package organizer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

// Discover collects the items to organize. With singlePath set, a file
// becomes the only item and a directory is walked like a source root;
// otherwise every source directory is walked. Walks pick up all files,
// not just video files, so subtitles and artwork travel with their show.
func Discover(sourceDirs []string, singlePath string, log *logging.Logger) ([]RawItem, error) {
	if singlePath != "" {
		abs, err := filepath.Abs(singlePath)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("reading path: %w", err)
		}
		if !info.IsDir() {
			return []RawItem{itemFor(abs)}, nil
		}
		return walkSource(abs, log)
	}

	var items []RawItem
	for _, dir := range sourceDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		found, err := walkSource(abs, log)
		if err != nil {
			log.Warn("scan", "source directory unreadable",
				logging.F("dir", dir),
				logging.F("error", err))
			continue
		}
		items = append(items, found...)
	}
	return items, nil
}

func walkSource(root string, log *logging.Logger) ([]RawItem, error) {
	var items []RawItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("scan", "skipping unreadable entry",
				logging.F("path", path),
				logging.F("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		items = append(items, itemFor(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func itemFor(path string) RawItem {
	return RawItem{
		SourcePath: path,
		ParentDir:  filepath.Base(filepath.Dir(path)),
		FileName:   filepath.Base(path),
	}
}
