package catalog

import (
	"regexp"
	"strings"

	"github.com/streamcat/stream-catalog/internal/playlist"
	"github.com/streamcat/stream-catalog/internal/series"
)

// Observer receives classification diagnostics. The classifier itself never
// logs; callers inject a logging or metrics observer when they want one.
type Observer interface {
	// ItemClassified is called once per classified item with the name of
	// the rule that decided its type.
	ItemClassified(item Item, rule string)
	// EntrySkipped is called for entries dropped before classification.
	EntrySkipped(displayName, reason string)
}

// NopObserver discards all diagnostics.
type NopObserver struct{}

func (NopObserver) ItemClassified(Item, string) {}
func (NopObserver) EntrySkipped(string, string) {}

// Result partitions classified items into the three disjoint content types.
type Result struct {
	Movies []Item
	Series []Item
	Live   []Item
}

// rule is one step of the classification cascade. First match wins: group
// title text is the strongest signal, filename heuristics the weakest, and
// series signals deliberately outrank the movie year/resolution check so
// "Show (2021) S01E02" lands in series.
type rule struct {
	name    string
	match   func(groupFold, nameRaw string) bool
	outcome Type
}

var rules = []rule{
	{
		name: "series-signal",
		match: func(groupFold, nameRaw string) bool {
			return foldHasWordPrefix(groupFold, "serie") ||
				foldContainsWord(groupFold, "temporada") ||
				strongSeriesRe.MatchString(nameRaw)
		},
		outcome: TypeSeries,
	},
	{
		name: "movie-group",
		match: func(groupFold, _ string) bool {
			return foldHasWordPrefix(groupFold, "filme") ||
				foldHasWordPrefix(groupFold, "movie") ||
				foldContainsWord(groupFold, "vod") ||
				foldHasWordPrefix(groupFold, "lancamento") ||
				foldContainsWord(groupFold, "cinema")
		},
		outcome: TypeMovie,
	},
	{
		name: "movie-name",
		match: func(_, nameRaw string) bool {
			return resolutionRe.MatchString(nameRaw) || yearParenRe.MatchString(nameRaw)
		},
		outcome: TypeMovie,
	},
	{
		name: "live-group",
		match: func(groupFold, _ string) bool {
			return strings.Contains(groupFold, "ao vivo") ||
				foldContainsWord(groupFold, "live") ||
				foldContainsWord(groupFold, "tv") ||
				foldHasWordPrefix(groupFold, "canai") ||
				foldHasWordPrefix(groupFold, "canal") ||
				foldHasWordPrefix(groupFold, "channel")
		},
		outcome: TypeLive,
	},
	{
		// Second chance for entries whose group title was uninformative.
		name: "series-name-loose",
		match: func(_, nameRaw string) bool {
			return looseSeriesRe.MatchString(nameRaw)
		},
		outcome: TypeSeries,
	},
}

// fallbackRule is the permissive default: anything unclassifiable stays in
// the catalog as a live channel instead of being dropped.
const fallbackRule = "fallback-live"

var (
	// Explicit season/episode markers: SxxEyy, NxM, Temporada, Episodio, EPn.
	strongSeriesRe = regexp.MustCompile(`(?i)\bS\d{1,2}\s*E\d{1,3}\b|\b\d{1,2}x\d{1,3}\b|temporada|epis[oó]dio|\bEP\.?\s?\d{1,3}\b`)
	// Loose markers: a bare Sxx plus the textual forms.
	looseSeriesRe = regexp.MustCompile(`(?i)\bS\d{1,2}\b|temporada|epis[oó]dio|\bEP\.?\s?\d{1,3}\b`)
	resolutionRe  = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p)\b`)
	yearParenRe   = regexp.MustCompile(`\((19|20)\d{2}\)`)
)

// Classify assigns each parseable entry a content type and partitions the
// result. Deterministic: identical input always produces identical output,
// and it never fails for a well-formed entry. obs may be nil.
func Classify(entries []playlist.Entry, obs Observer) Result {
	if obs == nil {
		obs = NopObserver{}
	}
	var res Result
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			obs.EntrySkipped(e.Name, "empty display name")
			continue
		}
		item, ruleName := classifyEntry(e)
		obs.ItemClassified(item, ruleName)
		switch item.Type {
		case TypeMovie:
			res.Movies = append(res.Movies, item)
		case TypeSeries:
			res.Series = append(res.Series, item)
		default:
			res.Live = append(res.Live, item)
		}
	}
	return res
}

func classifyEntry(e playlist.Entry) (Item, string) {
	groupFold := series.NormalizeKey(e.Attrs.GroupTitle)
	typ := TypeLive
	ruleName := fallbackRule
	for _, r := range rules {
		if r.match(groupFold, e.Name) {
			typ = r.outcome
			ruleName = r.name
			break
		}
	}

	item := Item{
		FullName:   e.Name,
		LogoURL:    e.Attrs.TvgLogo,
		GroupTitle: NormalizeGroupTitle(e.Attrs.GroupTitle),
		Type:       typ,
		StreamURL:  e.URL,
	}
	if typ == TypeSeries {
		info := series.Extract(e.Name)
		item.Name = info.Name
		item.Season = info.Season
		item.Episode = info.Episode
	} else {
		item.Name = series.CleanTitle(e.Name)
	}
	if item.Name == "" {
		item.Name = e.Name
	}
	item.ID = StableID(item.Name, item.Season, item.Episode)
	return item, ruleName
}

// vendorPrefixes are group-title lead tokens providers prepend to category
// names ("CANAIS: ESPORTES", "FILMES | AÇÃO"); stripped during normalization.
var vendorPrefixes = map[string]bool{
	"canais": true,
	"canal":  true,
	"filmes": true,
	"filme":  true,
	"series": true,
	"serie":  true,
	"vod":    true,
}

// NormalizeGroupTitle trims the group title and strips a known vendor prefix
// before ':' or '|'. The classification rules run on the raw title; this only
// shapes the stored category label.
func NormalizeGroupTitle(s string) string {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, ":|")
	if i <= 0 {
		return s
	}
	head := series.NormalizeKey(s[:i])
	if !vendorPrefixes[head] {
		return s
	}
	rest := strings.TrimSpace(s[i+1:])
	if rest == "" {
		return s
	}
	return rest
}

func foldContainsWord(fold, w string) bool {
	return strings.Contains(" "+fold+" ", " "+w+" ")
}

func foldHasWordPrefix(fold, prefix string) bool {
	for _, f := range strings.Fields(fold) {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}
