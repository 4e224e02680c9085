package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
)

// Library layout folders under the destination root.
const (
	layoutRoot      = "CineSync"
	showsRoot       = "Shows"
	moviesRoot      = "Movies"
	extrasFolder    = "Extras"
	collectionsTier = "Movie Collections"
)

// tierRule pairs a filename predicate with the tier folder it selects.
// Rules are evaluated top to bottom; remux rules come first so remux
// content never lands in the standard tiers.
type tierRule struct {
	tier  string
	match func(lower string) bool
}

func hasRemux(s string) bool { return strings.Contains(s, "remux") }
func has4K(s string) bool    { return strings.Contains(s, "2160") || strings.Contains(s, "4k") }

var showTierRules = []tierRule{
	{"UltraHDRemuxShows", func(s string) bool { return hasRemux(s) && has4K(s) }},
	{"1080pRemuxLibrary", func(s string) bool { return hasRemux(s) && strings.Contains(s, "1080") }},
	{"RemuxShows", hasRemux},
	{"UltraHD", func(s string) bool { return strings.Contains(s, "2160p") || strings.Contains(s, "4k") }},
	{"FullHD", func(s string) bool { return strings.Contains(s, "1080p") }},
	{"SDClassics", func(s string) bool { return strings.Contains(s, "720p") }},
	{"Retro480p", func(s string) bool { return strings.Contains(s, "480p") }},
	{"RetroDVD", func(s string) bool { return strings.Contains(s, "dvd") }},
}

var movieTierRules = []tierRule{
	{"4KRemux", func(s string) bool { return hasRemux(s) && has4K(s) }},
	{"1080pRemux", func(s string) bool { return hasRemux(s) && strings.Contains(s, "1080") }},
	{"MoviesRemux", hasRemux},
	{"UltraHD", func(s string) bool { return strings.Contains(s, "2160p") || strings.Contains(s, "4k") }},
	{"FullHD", func(s string) bool { return strings.Contains(s, "1080p") }},
	{"SDMovies", func(s string) bool { return strings.Contains(s, "720p") }},
	{"Retro480p", func(s string) bool { return strings.Contains(s, "480p") }},
	{"DVDClassics", func(s string) bool { return strings.Contains(s, "dvd") }},
}

// showTiers lists every tier a show folder can live under, checked when
// attaching extras to an existing show.
var showTiers = []string{
	"UltraHDRemuxShows", "1080pRemuxLibrary", "RemuxShows",
	"UltraHD", "FullHD", "SDClassics", "Retro480p", "RetroDVD", showsRoot,
}

func tierFor(rules []tierRule, fileName, fallback string) string {
	lower := strings.ToLower(fileName)
	for _, r := range rules {
		if r.match(lower) {
			return r.tier
		}
	}
	return fallback
}

// ShowTier buckets a show file into its resolution tier.
func ShowTier(fileName string) string { return tierFor(showTierRules, fileName, showsRoot) }

// MovieTier buckets a movie file into its resolution tier.
func MovieTier(fileName string) string { return tierFor(movieTierRules, fileName, moviesRoot) }

var multiHyphenRegex = regexp.MustCompile(`-{2,}`)

// PathResolver combines classifier output, resolver output and variation
// lookups into final destination paths.
type PathResolver struct {
	opts   Options
	client tmdb.API
	index  *Index
	log    *logging.Logger
}

// NewPathResolver creates a path resolver for one run.
func NewPathResolver(opts Options, client tmdb.API, index *Index, log *logging.Logger) *PathResolver {
	return &PathResolver{opts: opts, client: client, index: index, log: log}
}

// ResolvePath computes the destination for one classified, resolved item.
// The second return is false when the item should be skipped entirely
// (extras while the skip-extras toggle is on).
func (p *PathResolver) ResolvePath(ctx context.Context, item RawItem, class Classification, res Resolution) (string, bool) {
	if class.Class == ClassEpisode {
		return p.showPath(ctx, item, class, res)
	}
	return p.moviePath(ctx, item, res)
}

func (p *PathResolver) showPath(ctx context.Context, item RawItem, class Classification, res Resolution) (string, bool) {
	folder := appendYear(sanitizeFolder(res.CanonicalName), res.Year)
	if existing, ok := p.index.FindVariation(folder, res.Year); ok {
		folder = existing
	}

	if class.Extras {
		if p.opts.SkipExtras {
			p.log.Info("paths", "skipping extras file",
				logging.F("file", item.FileName),
				logging.F("show", folder))
			return "", false
		}

		// Extras attach to the show's existing folder when one exists
		// under any tier; otherwise they get the parallel Extras tree.
		extrasBase := filepath.Join(p.opts.DestDir, layoutRoot, showsRoot, extrasFolder, folder)
		if existing := p.findShowFolder(folder); existing != "" {
			extrasBase = existing
		}
		return filepath.Join(extrasBase, extrasFolder, item.FileName), true
	}

	season := fmt.Sprintf("Season %d", class.Season)
	name := item.FileName
	if p.opts.Rename && res.Resolved {
		name = p.episodeFileName(ctx, res, class, item.FileName)
	}

	tier := ShowTier(item.FileName)
	return filepath.Join(p.opts.DestDir, layoutRoot, showsRoot, tier, folder, season, name), true
}

func (p *PathResolver) moviePath(ctx context.Context, item RawItem, res Resolution) (string, bool) {
	folder := appendYear(sanitizeFolder(res.CanonicalName), res.Year)

	if existing, ok := p.index.FindVariation(folder, res.Year); ok {
		folder = existing
	}

	name := item.FileName
	if p.opts.Rename && res.Resolved {
		name = sanitizeFolder(res.CanonicalName) + filepath.Ext(item.FileName)
	}

	if p.opts.Collections && res.Resolved {
		if col := p.movieCollection(ctx, res); col != nil {
			collectionFolder := sanitizeFolder(fmt.Sprintf("%s {tmdb-%d}", col.Name, col.ID))
			if existing, ok := p.index.FindVariation(collectionFolder, 0); ok {
				collectionFolder = existing
			}
			return filepath.Join(p.opts.DestDir, layoutRoot, moviesRoot, collectionsTier, collectionFolder, folder, name), true
		}
	}

	tier := MovieTier(item.FileName)
	return filepath.Join(p.opts.DestDir, layoutRoot, moviesRoot, tier, folder, name), true
}

func (p *PathResolver) movieCollection(ctx context.Context, res Resolution) *tmdb.Collection {
	col, err := p.client.MovieCollection(ctx, res.TMDBID)
	if err != nil {
		p.log.Warn("paths", "collection lookup failed",
			logging.F("movie", res.Title),
			logging.F("error", err))
		return nil
	}
	if col != nil {
		p.log.Info("paths", "movie belongs to collection",
			logging.F("movie", res.Title),
			logging.F("collection", col.Name))
	}
	return col
}

// findShowFolder locates an existing show folder under any tier.
func (p *PathResolver) findShowFolder(folder string) string {
	for _, tier := range showTiers {
		path := filepath.Join(p.opts.DestDir, layoutRoot, showsRoot, tier, folder)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// episodeFileName composes "{Title} - SxxEyy - {Episode Name}{ext}". When
// the provider has no episode at the requested number, the absolute number
// is remapped into the season's episode count and retried once; failing
// that the name falls back to the bare identifier.
func (p *PathResolver) episodeFileName(ctx context.Context, res Resolution, class Classification, fileName string) string {
	ext := filepath.Ext(fileName)
	season, episode := class.Season, class.Episode

	name, err := p.client.EpisodeName(ctx, res.TMDBID, season, episode)
	if errors.Is(err, tmdb.ErrEpisodeNotFound) {
		total, countErr := p.client.SeasonEpisodeCount(ctx, res.TMDBID, season)
		if countErr == nil && total > 0 && episode > total {
			mapped := ((episode-1)%total) + 1
			p.log.Debug("paths", "absolute episode remapped",
				logging.F("show", res.Title),
				logging.F("episode", episode),
				logging.F("total", total),
				logging.F("mapped", mapped))
			if mappedName, retryErr := p.client.EpisodeName(ctx, res.TMDBID, season, mapped); retryErr == nil {
				episode = mapped
				name = mappedName
				err = nil
			}
		}
	}

	identifier := fmt.Sprintf("S%02dE%02d", season, episode)
	var composed string
	if err != nil || name == "" {
		if err != nil && !errors.Is(err, tmdb.ErrEpisodeNotFound) {
			p.log.Warn("paths", "episode name lookup failed",
				logging.F("show", res.Title),
				logging.F("error", err))
		}
		composed = fmt.Sprintf("%s - %s%s", res.Title, identifier, ext)
	} else {
		composed = fmt.Sprintf("%s - %s - %s%s", res.Title, identifier, sanitizeFolder(name), ext)
	}

	composed = multiHyphenRegex.ReplaceAllString(composed, "-")
	return strings.Trim(composed, "- ")
}

// sanitizeFolder removes path separators from a name destined for a
// single path element.
func sanitizeFolder(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "/", ""))
}

// appendYear suffixes "(YYYY)" when the folder does not already carry it.
func appendYear(folder string, year int) string {
	if year == 0 || strings.Contains(folder, fmt.Sprintf("(%d)", year)) {
		return folder
	}
	return fmt.Sprintf("%s (%d)", folder, year)
}
