package organizer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
)

// Resolution is the outcome of resolving one query against the provider.
// Unresolved items carry the original query as their canonical name so the
// pipeline can still place them.
type Resolution struct {
	Resolved      bool
	CanonicalName string
	Title         string
	Year          int
	TMDBID        int64
	External      tmdb.ExternalIDs
}

// Cache memoizes resolutions, including unresolved ones, for the lifetime
// of a run. Safe for concurrent use. Writes are idempotent: the same key
// always maps to the same value, so racing misses merely duplicate work.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Resolution
}

// NewCache creates an empty resolution cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Resolution)}
}

func (c *Cache) Get(key string) (Resolution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[key]
	return res, ok
}

func (c *Cache) Put(key string, res Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
}

// Len returns the number of cached resolutions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// DisambiguationPolicy chooses among multiple provider candidates. A false
// return means no valid selection; the query then resolves as unresolved.
type DisambiguationPolicy interface {
	Choose(query string, candidates []tmdb.Result) (tmdb.Result, bool)
}

// AutoFirst picks the provider's top-ranked candidate.
type AutoFirst struct{}

func (AutoFirst) Choose(_ string, candidates []tmdb.Result) (tmdb.Result, bool) {
	return candidates[0], true
}

// FailClosed declines every ambiguous choice.
type FailClosed struct{}

func (FailClosed) Choose(string, []tmdb.Result) (tmdb.Result, bool) {
	return tmdb.Result{}, false
}

// Interactive delegates the choice to a prompt callback returning a
// 1-based pick; zero or out-of-range declines.
type Interactive struct {
	Prompt func(query string, candidates []tmdb.Result) int
}

func (p Interactive) Choose(query string, candidates []tmdb.Result) (tmdb.Result, bool) {
	if p.Prompt == nil {
		return tmdb.Result{}, false
	}
	choice := p.Prompt(query, candidates)
	if choice < 1 || choice > len(candidates) {
		return tmdb.Result{}, false
	}
	return candidates[choice-1], true
}

// maxChoices is how many candidates a disambiguation prompt shows.
const maxChoices = 3

var trailingParenRegex = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// Resolver drives the cascading provider search for one run. All items
// share it; the cache and client must be safe for concurrent use.
type Resolver struct {
	client   tmdb.API
	cache    *Cache
	policy   DisambiguationPolicy
	folderID string
	log      *logging.Logger
}

// NewResolver creates a resolver. folderID selects the metadata tag
// embedded in canonical names: imdb, tvdb, tmdb or none.
func NewResolver(client tmdb.API, cache *Cache, policy DisambiguationPolicy, folderID string, log *logging.Logger) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	if policy == nil {
		policy = FailClosed{}
	}
	return &Resolver{
		client:   client,
		cache:    cache,
		policy:   policy,
		folderID: folderID,
		log:      log,
	}
}

// cascadeStep is one fallback strategy in the search order.
type cascadeStep struct {
	name string
	run  func(ctx context.Context) ([]tmdb.Result, error)
}

// Resolve runs the search cascade for a normalized query. The result is
// cached under the original query/year pair regardless of which fallback
// step produced it; repeated lookups never touch the network again.
func (r *Resolver) Resolve(ctx context.Context, media tmdb.MediaType, query NormalizedQuery, dirName string) Resolution {
	key := cacheKey(media, query)
	if res, ok := r.cache.Get(key); ok {
		return res
	}

	var candidates []tmdb.Result
	for _, step := range r.cascadeSteps(media, query, dirName) {
		results, err := step.run(ctx)
		if err != nil {
			// Transport failures empty out this step only.
			r.log.Debug("resolver", "cascade step failed",
				logging.F("step", step.name),
				logging.F("query", query.Title),
				logging.F("error", err))
			continue
		}
		r.log.Debug("resolver", "cascade step",
			logging.F("step", step.name),
			logging.F("query", query.Title),
			logging.F("results", len(results)))
		if len(results) > 0 {
			candidates = results
			break
		}
	}

	res := r.selectCandidate(ctx, media, query, candidates)
	r.cache.Put(key, res)
	return res
}

// cascadeSteps builds the ordered fallback strategy list for a query.
// Steps that would repeat an earlier query text are dropped.
func (r *Resolver) cascadeSteps(media tmdb.MediaType, query NormalizedQuery, dirName string) []cascadeStep {
	var steps []cascadeStep
	seen := make(map[string]bool)

	search := func(name, text string, year int) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		k := strings.ToLower(text) + "|" + strconv.Itoa(year)
		if seen[k] {
			return
		}
		seen[k] = true
		steps = append(steps, cascadeStep{
			name: name,
			run: func(ctx context.Context) ([]tmdb.Result, error) {
				return r.client.Search(ctx, media, text, year)
			},
		})
	}

	if query.Year > 0 {
		search("title+year", query.Title, query.Year)
	}
	search("title", query.Title, 0)

	if stripped := strings.TrimSpace(trailingParenRegex.ReplaceAllString(query.Title, "")); stripped != query.Title {
		search("paren-stripped", stripped, query.Year)
	}

	steps = append(steps, cascadeStep{
		name: "web-fallback",
		run: func(ctx context.Context) ([]tmdb.Result, error) {
			return r.webFallback(ctx, media, query.Title)
		},
	})

	if query.Year > 0 {
		search("year-only", strconv.Itoa(query.Year), 0)
	}
	if cleaned := StrictClean(query.Title); cleaned != query.Title {
		search("strict-clean", cleaned, query.Year)
	}
	if dirQuery := Normalize(dirName); dirQuery.Title != "" {
		search("dir-name", dirQuery.Title, dirQuery.Year)
	}

	return steps
}

// webFallback scrapes the provider's public search page and promotes the
// first matching ID into a single full candidate.
func (r *Resolver) webFallback(ctx context.Context, media tmdb.MediaType, title string) ([]tmdb.Result, error) {
	id, err := r.client.WebFallbackSearch(ctx, media, title)
	if errors.Is(err, tmdb.ErrNoWebResult) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	details, err := r.client.Details(ctx, media, id)
	if err != nil {
		return nil, err
	}
	return []tmdb.Result{*details}, nil
}

// selectCandidate applies the disambiguation policy and composes the
// canonical name. External IDs are fetched only after a candidate is
// chosen, never speculatively.
func (r *Resolver) selectCandidate(ctx context.Context, media tmdb.MediaType, query NormalizedQuery, candidates []tmdb.Result) Resolution {
	if len(candidates) == 0 {
		r.log.Warn("resolver", "no provider match",
			logging.F("query", query.Title),
			logging.F("year", query.Year))
		return Resolution{Resolved: false, CanonicalName: query.Title}
	}

	var chosen tmdb.Result
	if len(candidates) == 1 {
		chosen = candidates[0]
	} else {
		top := candidates
		if len(top) > maxChoices {
			top = top[:maxChoices]
		}
		picked, ok := r.policy.Choose(query.Title, top)
		if !ok {
			r.log.Warn("resolver", "no valid selection",
				logging.F("query", query.Title),
				logging.F("candidates", len(candidates)))
			return Resolution{Resolved: false, CanonicalName: query.Title}
		}
		chosen = picked
	}

	ext, err := r.client.ExternalIDs(ctx, media, chosen.ID)
	if err != nil {
		r.log.Warn("resolver", "external id lookup failed",
			logging.F("id", chosen.ID),
			logging.F("error", err))
		ext = tmdb.ExternalIDs{}
	}

	res := Resolution{
		Resolved: true,
		Title:    chosen.DisplayTitle(),
		Year:     chosen.Year(),
		TMDBID:   chosen.ID,
		External: ext,
	}
	res.CanonicalName = canonicalName(res, media, r.folderID)

	r.log.Info("resolver", "selected candidate",
		logging.F("title", res.Title),
		logging.F("year", res.Year),
		logging.F("id", res.TMDBID))

	return res
}

func cacheKey(media tmdb.MediaType, query NormalizedQuery) string {
	return strings.ToLower(query.Title) + "|" + strconv.Itoa(query.Year) + "|" + string(media)
}

// canonicalName composes "{Title} ({Year}) {tag}". The year segment is
// omitted when unknown.
func canonicalName(res Resolution, media tmdb.MediaType, folderID string) string {
	name := res.Title
	if res.Year > 0 {
		name = fmt.Sprintf("%s (%d)", name, res.Year)
	}
	if tag := folderTag(media, folderID, res.TMDBID, res.External); tag != "" {
		name += " " + tag
	}
	return name
}

// folderTag renders the metadata tag for the configured preference,
// falling down the IMDb > TVDB > TMDb chain when the preferred ID is
// unavailable. TVDB applies to TV only.
func folderTag(media tmdb.MediaType, folderID string, tmdbID int64, ext tmdb.ExternalIDs) string {
	if folderID == "none" {
		return ""
	}
	if folderID == "imdb" && ext.IMDbID != "" {
		return fmt.Sprintf("{imdb-%s}", ext.IMDbID)
	}
	if (folderID == "imdb" || folderID == "tvdb") && media == tmdb.MediaTV && ext.TVDBID != 0 {
		return fmt.Sprintf("{tvdb-%d}", ext.TVDBID)
	}
	return fmt.Sprintf("{tmdb-%d}", tmdbID)
}
