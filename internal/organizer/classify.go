package organizer

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// episodePattern couples a filename pattern with the extraction mapping its
// groups to season/episode numbers. useParentTitle selects the parent
// directory instead of the filename prefix as the show-title source.
type episodePattern struct {
	name           string
	re             *regexp.Regexp
	useParentTitle bool
	extract        func(m []string, parentDir string) (season, episode int, ok bool)
}

// episodePatterns is the classification priority order. First match wins.
var episodePatterns = []episodePattern{
	{
		// Show.Name.S02E05.mkv
		name:           "SxxExx",
		re:             regexp.MustCompile(`(?i)^(.*?)[\s._-]*S(\d{2})E(\d{2})\b`),
		useParentTitle: true,
		extract: func(m []string, _ string) (int, int, bool) {
			return atoiPair(m[2], m[3])
		},
	},
	{
		// Show.Name.3x05.mkv
		name: "NxM",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*\b(\d{1,2})x(\d{2})\b`),
		extract: func(m []string, _ string) (int, int, bool) {
			return atoiPair(m[2], m[3])
		},
	},
	{
		// Show.Name.S0215.mkv (concatenated season+episode)
		name: "Sxxyy",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*S(\d{2})(\d{2,3})\b`),
		extract: func(m []string, _ string) (int, int, bool) {
			return atoiPair(m[2], m[3])
		},
	},
	{
		// Show.Name.02e05.mkv
		name: "xxeyy",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*\b(\d{2})e(\d{2})\b`),
		extract: func(m []string, _ string) (int, int, bool) {
			return atoiPair(m[2], m[3])
		},
	},
	{
		// Show.Name.Ep.12.mkv or Episode 12.mkv, season recovered from the
		// parent directory. The marker must start the name or follow a
		// separator so titles like "Step 2" stay movies.
		name: "EpN",
		re:   regexp.MustCompile(`(?i)^(.*?)(?:^|[\s._-])Ep(?:isode)?\.?\s*(\d{1,3})\b`),
		extract: func(m []string, parentDir string) (int, int, bool) {
			episode, err := strconv.Atoi(m[2])
			if err != nil || episode == 0 {
				return 0, 0, false
			}
			return seasonFromDir(parentDir), episode, true
		},
	},
}

// Directory tokens that mark a tree as TV content even when filenames
// carry no episode identifier.
var showDirTokens = []string{"season", "episode", "s01", "s02", "s03", "s04", "s05"}

var (
	seasonDirRegex   = regexp.MustCompile(`(?i)\bS(\d{2})\b|\bSeason\s*(\d+)\b`)
	seasonOnwardDir  = regexp.MustCompile(`(?i)[\s._-]*(\bS\d{2}\b.*|\bSeason\s*\d+\b.*)$`)
	videoExtensions  = map[string]bool{".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true, ".ts": true, ".m2ts": true}
)

// Classify decides whether an item is a movie or an episode and extracts
// season/episode numbers. Items inside show-marked directories that carry
// no usable episode identifier are flagged as Extras; everything else
// defaults to Movie.
func Classify(item RawItem) Classification {
	for _, p := range episodePatterns {
		m := p.re.FindStringSubmatch(item.FileName)
		if m == nil {
			continue
		}

		season, episode, ok := p.extract(m, item.ParentDir)
		if !ok {
			// Matched an episode marker that maps to nothing usable:
			// degrade to S01E01 and route the file to Extras.
			return Classification{
				Class:    ClassEpisode,
				Season:   1,
				Episode:  1,
				Extras:   true,
				RawTitle: episodeTitle(m[1], item.ParentDir, true),
			}
		}

		return Classification{
			Class:    ClassEpisode,
			Season:   season,
			Episode:  episode,
			RawTitle: episodeTitle(m[1], item.ParentDir, p.useParentTitle),
		}
	}

	if dir := strings.ToLower(filepath.Dir(item.SourcePath)); containsAny(dir, showDirTokens) {
		return Classification{
			Class:    ClassEpisode,
			Season:   seasonFromDir(item.ParentDir),
			Episode:  1,
			Extras:   true,
			RawTitle: showTitleFromDir(item.ParentDir),
		}
	}

	return Classification{
		Class:    ClassMovie,
		RawTitle: movieTitle(item),
	}
}

func atoiPair(s, e string) (int, int, bool) {
	season, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	episode, err := strconv.Atoi(e)
	if err != nil || episode == 0 {
		return 0, 0, false
	}
	if season == 0 {
		season = 1
	}
	return season, episode, true
}

// seasonFromDir recovers a season number from a directory name, defaulting
// to 1 when no marker is present.
func seasonFromDir(dir string) int {
	m := seasonDirRegex.FindStringSubmatch(dir)
	if m == nil {
		return 1
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	season, err := strconv.Atoi(digits)
	if err != nil || season == 0 {
		return 1
	}
	return season
}

// showTitleFromDir derives a show title from a directory name by cutting
// everything from the first season marker onward.
func showTitleFromDir(dir string) string {
	return strings.TrimSpace(seasonOnwardDir.ReplaceAllString(dir, ""))
}

// episodeTitle picks the show-title source for an episode match. A parent
// directory that carries a season marker names the show; a plain parent
// (download root, staging dir) does not, so the filename prefix wins there.
// Either side falls back to the other when empty.
func episodeTitle(filePrefix, parentDir string, preferParent bool) string {
	fromFile := strings.TrimSpace(filePrefix)
	trimmedDir := strings.TrimSpace(parentDir)
	fromDir := showTitleFromDir(parentDir)

	if preferParent && fromDir != "" && fromDir != trimmedDir {
		return fromDir
	}
	if fromFile != "" {
		return fromFile
	}
	return fromDir
}

// movieTitle picks the title source for a movie: the parent directory when
// it carries a year (release folders usually do), the filename otherwise.
func movieTitle(item RawItem) string {
	if Normalize(item.ParentDir).Year != 0 {
		return item.ParentDir
	}

	name := item.FileName
	if ext := filepath.Ext(name); videoExtensions[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// IsVideoFile reports whether a file name has a known video extension.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
