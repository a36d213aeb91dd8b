// Package series extracts series names and season/episode numbers from IPTV
// display names. Provider naming is dirty and inconsistent ("Show S01E05",
// "Show Temporada 2 Episodio 3", "Show 1x01", "Show EP7", "Show 03"), so
// extraction runs an ordered pattern cascade from most to least specific.
package series

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Info is the result of extracting series naming from a display name.
// Season/Episode are 0 when unknown.
type Info struct {
	Name    string
	Season  int
	Episode int
}

// pattern is one step of the extraction cascade. Order matters: explicit
// SxxEyy must win over looser forms that only see a trailing number.
type pattern struct {
	name string
	re   *regexp.Regexp
	// apply turns the submatches into season/episode numbers.
	apply func(m []string, rest string) (season, episode int)
}

var patterns = []pattern{
	{
		// Show S01E05
		name: "sxxeyy",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*S(\d{1,2})[\s._-]*E(\d{1,3})\b`),
		apply: func(m []string, _ string) (int, int) {
			return atoi(m[2]), atoi(m[3])
		},
	},
	{
		// Show S02 — episode from a separate marker elsewhere, else 1.
		name: "sxx",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*S(\d{1,2})\b`),
		apply: func(m []string, rest string) (int, int) {
			if em := looseEpisodeRe.FindStringSubmatch(rest); em != nil {
				return atoi(m[2]), atoi(em[1])
			}
			return atoi(m[2]), 1
		},
	},
	{
		// Show Temporada 2 [Episodio 3]
		name: "temporada",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*Temporada[\s._-]*(\d{1,2})(?:[\s._-]*Epis[oó]dio[\s._-]*(\d{1,3}))?`),
		apply: func(m []string, _ string) (int, int) {
			if m[3] != "" {
				return atoi(m[2]), atoi(m[3])
			}
			return atoi(m[2]), 1
		},
	},
	{
		// Show 1x05
		name: "nxm",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*(\d{1,2})x(\d{1,3})\b`),
		apply: func(m []string, _ string) (int, int) {
			return atoi(m[2]), atoi(m[3])
		},
	},
	{
		// Show EP7 / Show Episodio 7 — no season, default 1.
		name: "episode-only",
		re:   regexp.MustCompile(`(?i)^(.*?)[\s._-]*(?:EP[\s.]*|Epis[oó]dio[\s._-]*)(\d{1,3})\b`),
		apply: func(m []string, _ string) (int, int) {
			return 1, atoi(m[2])
		},
	},
	{
		// Show 03 — bare trailing 1-2 digit number as episode.
		name: "trailing-number",
		re:   regexp.MustCompile(`^(.*?)[\s._-]+(\d{1,2})$`),
		apply: func(m []string, _ string) (int, int) {
			return 1, atoi(m[2])
		},
	},
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// looseEpisodeRe finds an episode marker anywhere in the remainder of a name
// that already matched a bare season (pattern "sxx").
var looseEpisodeRe = regexp.MustCompile(`(?i)\b(?:EP?[\s.]*|Epis[oó]dio[\s._-]*)(\d{1,3})\b`)

// Extract normalizes displayName and applies the pattern cascade, stopping at
// the first match. When nothing matches, Info carries only the cleaned name
// with Season/Episode zero; callers decide the fallback policy.
func Extract(displayName string) Info {
	title := CleanTitle(displayName)
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		rest := title[len(m[0]):]
		season, episode := p.apply(m, rest)
		name := trimSeparators(m[1])
		if name == "" {
			// Marker with no preceding title ("S01E01.mkv" style); keep
			// the cleaned title rather than returning an empty name.
			name = title
		}
		return Info{Name: name, Season: season, Episode: episode}
	}
	return Info{Name: title}
}

// HasMarker reports whether displayName contains any structured
// season/episode marker (SxxEyy, Sxx, Temporada, Episodio, EPn, NxM).
// Used by the classifier as a series signal; unlike Extract it does not
// treat a bare trailing number as a marker.
func HasMarker(displayName string) bool {
	title := CleanTitle(displayName)
	for _, p := range patterns {
		if p.name == "trailing-number" {
			continue
		}
		if p.re.MatchString(title) {
			return true
		}
	}
	return false
}

var (
	bracketRe   = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	qualityRe   = regexp.MustCompile(`(?i)(?:^|[\s._-])(2160p|1080p|720p|480p|4k|uhd|fhd|full\s?hd|sd|hd|h\.?26[45]|x26[45]|hevc|hdrip|web[\s.-]?dl|webrip|bluray|brrip|dvdrip|hdtv|cam|legendado|dublado|dual[\s.-]?audio)(?:$|[\s._-])`)
	multiWSRe   = regexp.MustCompile(`\s{2,}`)
	separatorRe = regexp.MustCompile(`^[\s._\-:|]+|[\s._\-:|]+$`)
)

// CleanTitle strips bracketed/parenthesized annotations ("[HD]", "(2021)"),
// quality/codec tags and stray separators, and collapses repeated whitespace.
func CleanTitle(s string) string {
	s = bracketRe.ReplaceAllString(s, " ")
	for {
		out := qualityRe.ReplaceAllString(s, " ")
		if out == s {
			break
		}
		s = out
	}
	s = multiWSRe.ReplaceAllString(s, " ")
	return trimSeparators(s)
}

func trimSeparators(s string) string {
	s = separatorRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// baseSuffixRe strips a trailing season/episode suffix from a cleaned title.
// Only explicit markers qualify: a bare trailing number stays, since titles
// like "Agente 86" legitimately end in one. Extract already consumed any
// bare-number episode fallback before grouping sees the name.
var baseSuffixRe = regexp.MustCompile(`(?i)[\s._-]*(?:S\d{1,2}(?:[\s._-]*E\d{1,3})?|\d{1,2}x\d{1,3}|Temporada[\s._-]*\d{1,2}.*|Epis[oó]dio[\s._-]*\d{1,3}.*|EP[\s.]*\d{1,3}.*)$`)

// BaseName returns the cleaned display name with any trailing season/episode
// markers removed. Applied repeatedly so "Show Temporada 2 EP3" reduces to
// "Show".
func BaseName(displayName string) string {
	s := CleanTitle(displayName)
	for {
		out := baseSuffixRe.ReplaceAllString(s, "")
		out = trimSeparators(out)
		if out == s || out == "" {
			if out != "" {
				s = out
			}
			break
		}
		s = out
	}
	return s
}

var nonAlphaNumRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey lowercases s, strips accents and punctuation and collapses
// whitespace. Two display names identify the same series iff their
// normalized base names are equal.
func NormalizeKey(s string) string {
	s = strings.ToLower(foldAccents(s))
	s = nonAlphaNumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// foldAccents removes combining marks after NFD decomposition ("é" -> "e").
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
