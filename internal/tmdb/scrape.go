package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Nomadcxx/cinesync/internal/logging"
)

// ErrNoWebResult is returned when the public search page yields no usable
// match for the requested media type.
var ErrNoWebResult = errors.New("no web search result")

// The public search page rejects requests without a browser user agent.
const webUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

var (
	movieHrefPattern = regexp.MustCompile(`^/movie/(\d+)`)
	tvHrefPattern    = regexp.MustCompile(`^/tv/(\d+)`)
)

// WebFallbackSearch scrapes the public TMDb search page for the first
// result of the requested media type and returns its ID. Works without an
// API key, so it also serves as a last resort when none is configured.
func (c *Client) WebFallbackSearch(ctx context.Context, media MediaType, query string) (int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrNoWebResult
	}

	endpoint := strings.TrimRight(c.WebBaseURL, "/") + "/search?query=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("web search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse search page: %w", err)
	}

	pattern := movieHrefPattern
	if media == MediaTV {
		pattern = tvHrefPattern
	}

	var id int64
	doc.Find("a.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}

		m := pattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}

		parsed, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return true
		}

		id = parsed
		return false
	})

	if id == 0 {
		return 0, ErrNoWebResult
	}

	c.log.Debug("tmdb", "web fallback matched",
		logging.F("query", query),
		logging.F("media", string(media)),
		logging.F("id", id))

	return id, nil
}
