package organizer

import (
	"fmt"
	"time"
)

// RawItem is a single discovered source file, before any classification
// or resolution.
type RawItem struct {
	SourcePath string // absolute path
	ParentDir  string // name of the containing directory
	FileName   string // base name
}

// NormalizedQuery is a cleaned search title with an optional year.
type NormalizedQuery struct {
	Title string
	Year  int // 0 = unknown
}

// MediaClass distinguishes movies from TV episodes.
type MediaClass int

const (
	ClassMovie MediaClass = iota
	ClassEpisode
)

func (c MediaClass) String() string {
	switch c {
	case ClassMovie:
		return "movie"
	case ClassEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// Classification is the result of pattern-matching a filename and its
// parent directory. Season is always >= 1 for episodes; Extras marks
// bonus content that has no usable episode number.
type Classification struct {
	Class   MediaClass
	Season  int
	Episode int
	Extras  bool

	// RawTitle is the text chosen as the search-title source: the parent
	// directory for folder-named episodes, the filename prefix otherwise.
	RawTitle string
}

// Identifier returns the SxxEyy form of an episode classification.
func (c Classification) Identifier() string {
	return fmt.Sprintf("S%02dE%02d", c.Season, c.Episode)
}

// Outcome describes what the materializer did for one item.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyLinked
	OutcomeReplaced
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyLinked:
		return "already linked"
	case OutcomeReplaced:
		return "replaced"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ItemResult records the fate of one source item for reporting.
type ItemResult struct {
	Source     string
	Dest       string
	Outcome    Outcome
	Resolved   bool
	SkipReason string
	Err        error
}

// Summary aggregates a full organize run.
type Summary struct {
	Scanned       int
	Created       int
	AlreadyLinked int
	Replaced      int
	Skipped       int
	Unresolved    int
	Failed        int
	Duration      time.Duration
	Items         []ItemResult
}

// Options control a single organize run.
type Options struct {
	SourceDirs  []string
	DestDir     string
	SinglePath  string // when set, organize only this path
	DryRun      bool
	AutoSelect  bool
	Rename      bool
	Collections bool
	SkipExtras  bool
	FolderID    string // imdb, tvdb, tmdb or none
	Workers     int    // 0 = number of CPUs
}
