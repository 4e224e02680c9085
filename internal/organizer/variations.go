package organizer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

// partialLengthThreshold bounds how far apart two folder names may be in
// length and still count as variations of each other.
const partialLengthThreshold = 5

// Entry is one destination directory with its precomputed comparison form.
type Entry struct {
	Name string // base name as it exists on disk
	key  string
	year int
}

// Index is a snapshot of the destination tree, built once per run and
// read-only afterwards. Symlinks created during the same run are not
// visible to it; only collisions against pre-existing entries are caught.
type Index struct {
	entries []Entry
	links   map[string]string // symlink target -> destination path
	log     *logging.Logger
}

// BuildIndex walks the destination root once, precomputing comparison keys
// and years for every directory and recording existing symlink targets.
func BuildIndex(destRoot string, log *logging.Logger) *Index {
	idx := &Index{
		links: make(map[string]string),
		log:   log,
	}

	filepath.WalkDir(destRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if path == destRoot {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			idx.entries = append(idx.entries, Entry{
				Name: name,
				key:  comparisonKey(name),
				year: folderYear(name),
			})
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			if target, readErr := os.Readlink(path); readErr == nil {
				idx.links[target] = path
			}
		}
		return nil
	})

	log.Debug("index", "destination index built",
		logging.F("entries", len(idx.entries)),
		logging.F("links", len(idx.links)))
	return idx
}

// FindVariation looks for an existing destination folder that plausibly
// represents the same title. An exact key match wins when the years agree
// or either side lacks one. Failing that, the closest partial match
// (containment within a small length difference) is chosen, preferring
// the shortest name and then an agreeing year.
func (idx *Index) FindVariation(name string, year int) (string, bool) {
	key := comparisonKey(name)
	if key == "" {
		return "", false
	}

	var partials []Entry
	for _, e := range idx.entries {
		if key == e.key && (e.year == year || year == 0 || e.year == 0) {
			idx.log.Debug("index", "exact variation match",
				logging.F("candidate", name),
				logging.F("existing", e.Name))
			return e.Name, true
		}

		if !strings.Contains(e.key, key) && !strings.Contains(key, e.key) {
			continue
		}
		if intAbs(len(key)-len(e.key)) < partialLengthThreshold {
			partials = append(partials, e)
		}
	}

	if len(partials) == 0 {
		return "", false
	}

	best := partials[0]
	for _, e := range partials[1:] {
		if partialBetter(e, best, year) {
			best = e
		}
	}

	idx.log.Debug("index", "partial variation match",
		logging.F("candidate", name),
		logging.F("existing", best.Name))
	return best.Name, true
}

// partialBetter ranks partial matches: shorter names win outright, and
// among equal lengths a matching year beats a mismatch.
func partialBetter(a, b Entry, year int) bool {
	if len(a.Name) != len(b.Name) {
		return len(a.Name) < len(b.Name)
	}
	return a.year == year && b.year != year
}

// LinkedDest returns the pre-existing destination path whose symlink
// already points at source.
func (idx *Index) LinkedDest(source string) (string, bool) {
	dest, ok := idx.links[source]
	return dest, ok
}

func intAbs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
