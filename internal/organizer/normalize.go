package organizer

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Pre-compiled regexes for query normalization
var (
	noiseRegex          *regexp.Regexp
	seasonOnwardRegex   *regexp.Regexp
	indexPrefixRegex    *regexp.Regexp
	separatorRegex      *regexp.Regexp
	groupRemnantRegex   *regexp.Regexp
	emptyParenRegex     *regexp.Regexp
	collapseSpacesRegex *regexp.Regexp
	parenYearRegex      *regexp.Regexp
	wordYearRegex       *regexp.Regexp
	trailingBareYear    *regexp.Regexp
	danglingTailRegex   *regexp.Regexp
	tagRegex            *regexp.Regexp
	keyYearRegex        *regexp.Regexp
	keyPunctRegex       *regexp.Regexp
	stripPunctRegex     *regexp.Regexp
	leetWordRegex       *regexp.Regexp
	wordRegex           *regexp.Regexp
)

// Resolution values that look like years but never are.
var resolutionValues = map[int]bool{
	480:  true,
	720:  true,
	1080: true,
	2160: true,
}

// plausibleYear bounds year tokens to the era of actual releases, so
// numeric titles like "The 4400" keep their digits.
func plausibleYear(year int) bool {
	return year >= 1900 && year <= 2099 && !resolutionValues[year]
}

func init() {
	// Quality/encoding/release tokens removed from queries. Longer variants
	// come first so the alternation matches them before their prefixes.
	noiseTokens := []string{
		"Unrated", "Remastered", "IMAX", "Extended", "BDRemux", "BDRip",
		"WebDl", "HDR10", "HDR", "DV", "ITA", "ENG", "x265", "x264",
		"H265", "H264", "HEVC", "4K", "2160p", "1080p", "720p", "480p",
		"AC3", "AAC", "DTS", `5\.1`, `7\.1`, "Sub", "NAHOM", "mkv", "mp4",
		"Complete", "Rip",
	}
	noiseRegex = regexp.MustCompile(`(?i)\b(?:` + strings.Join(noiseTokens, "|") + `)\b`)

	seasonOnwardRegex = regexp.MustCompile(`(?i)\bS\d{2}.*`)
	indexPrefixRegex = regexp.MustCompile(`^\d{1,2}\.\s+`)
	separatorRegex = regexp.MustCompile(`[._]`)
	groupRemnantRegex = regexp.MustCompile(`(?:^|\s)-[A-Za-z0-9]+\b`)
	emptyParenRegex = regexp.MustCompile(`\(\s*\)`)
	collapseSpacesRegex = regexp.MustCompile(`\s+`)

	parenYearRegex = regexp.MustCompile(`\(\s*(\d{4})\s*\)`)
	wordYearRegex = regexp.MustCompile(`\b(\d{4})\b`)
	trailingBareYear = regexp.MustCompile(`(\d{4})\s*$`)
	danglingTailRegex = regexp.MustCompile(`[\s(\-_]+$`)

	tagRegex = regexp.MustCompile(`\{[^}]*\}`)
	keyYearRegex = regexp.MustCompile(`\(\d{4}\)`)
	keyPunctRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	stripPunctRegex = regexp.MustCompile(`[^\w\s]`)

	// Words containing characters the leet pass would substitute
	leetWordRegex = regexp.MustCompile(`[014579@#$%&*3]`)
	wordRegex = regexp.MustCompile(`\b\w+\b`)
}

// Normalize turns a raw filename or folder name into a clean search title
// plus an optional year. It strips the noise vocabulary, anything from a
// season marker onward, release-group remnants and empty parens, then
// extracts the first plausible year token. Idempotent: normalizing an
// already-normalized title changes nothing.
func Normalize(raw string) NormalizedQuery {
	title := indexPrefixRegex.ReplaceAllString(raw, "")

	// Noise and season stripping run before separator conversion so that
	// dotted tokens like "5.1" are still matchable.
	title = noiseRegex.ReplaceAllString(title, " ")
	title = seasonOnwardRegex.ReplaceAllString(title, "")

	title = separatorRegex.ReplaceAllString(title, " ")
	title = groupRemnantRegex.ReplaceAllString(title, " ")
	title = emptyParenRegex.ReplaceAllString(title, "")
	title = collapseSpacesRegex.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	year := 0
	if m := parenYearRegex.FindStringSubmatchIndex(title); m != nil {
		parsed, _ := strconv.Atoi(title[m[2]:m[3]])
		if plausibleYear(parsed) {
			year = parsed
			title = title[:m[0]] + title[m[1]:]
		}
	}
	if year == 0 {
		for _, m := range wordYearRegex.FindAllStringSubmatchIndex(title, -1) {
			parsed, _ := strconv.Atoi(title[m[2]:m[3]])
			if !plausibleYear(parsed) {
				continue
			}
			year = parsed
			title = title[:m[0]]
			break
		}
	}

	title = danglingTailRegex.ReplaceAllString(title, "")
	title = collapseSpacesRegex.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	return NormalizedQuery{Title: title, Year: year}
}

// leet substitutions applied by Standardize
var leetReplacements = map[rune]string{
	'0': "o", '1': "i", '3': "e", '4': "a", '5': "s", '7': "t", '9': "g",
	'@': "a", '#': "h", '$': "s", '%': "p", '&': "and", '*': "x",
}

// Standardize substitutes stylized leet characters back to letters, but
// only when more than 4 words of the title contain them. Titles with a
// lower affected count are left alone so legitimately numeric names
// ("Se7en alone", "2012") are not corrupted.
func Standardize(title string) string {
	affected := 0
	for _, word := range wordRegex.FindAllString(title, -1) {
		if leetWordRegex.MatchString(word) {
			affected++
		}
	}

	if affected > 4 {
		var sb strings.Builder
		for _, r := range title {
			if repl, ok := leetReplacements[r]; ok {
				sb.WriteString(repl)
			} else {
				sb.WriteRune(r)
			}
		}
		title = sb.String()
	}

	title = collapseSpacesRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// StrictClean is the aggressive cleanup used late in the search cascade:
// leet standardization followed by removal of all punctuation.
func StrictClean(title string) string {
	title = Standardize(title)
	title = stripPunctRegex.ReplaceAllString(title, "")
	title = collapseSpacesRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// comparisonKey reduces a folder name to the form variation matching
// compares on: lowercase, separators unified, id tags and parenthesized
// years removed. Years are compared separately by FindVariation, so two
// spellings of the same title collide here regardless of tagging.
func comparisonKey(name string) string {
	key := strings.ToLower(name)
	key = tagRegex.ReplaceAllString(key, " ")
	key = keyYearRegex.ReplaceAllString(key, " ")
	key = separatorRegex.ReplaceAllString(key, " ")
	key = strings.ReplaceAll(key, "-", " ")
	key = keyPunctRegex.ReplaceAllString(key, "")
	key = collapseSpacesRegex.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// folderYear extracts the year embedded in a folder name: parenthesized
// anywhere (canonical folders carry "(YYYY)" ahead of any id tag), or
// bare at the end. Returns 0 when absent.
func folderYear(name string) int {
	name = strings.TrimSpace(name)
	if m := parenYearRegex.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		if plausibleYear(year) {
			return year
		}
		return 0
	}
	if m := trailingBareYear.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		if plausibleYear(year) {
			return year
		}
	}
	return 0
}

var titleCaser = cases.Title(language.English)

// DisplayTitle renders a raw query for user-facing output (prompts,
// reports). Purely presentational; search queries are never cased.
func DisplayTitle(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.ToLower(raw) == raw || strings.ToUpper(raw) == raw {
		return titleCaser.String(strings.ToLower(raw))
	}
	return raw
}
