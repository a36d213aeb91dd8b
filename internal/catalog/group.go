package catalog

import (
	"sort"
	"strconv"

	"github.com/streamcat/stream-catalog/internal/series"
)

// SeriesGroup aggregates every episode of one canonical series title.
// Membership is case- and accent-insensitive: two items belong to the same
// group iff their normalized base titles are equal.
type SeriesGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Seasons is sorted ascending by number, episodes ascending within each
	// season; consumers iterate without re-sorting.
	Seasons []Season `json:"seasons"`
}

// Season holds the ordered episodes of one season.
type Season struct {
	Number   int    `json:"number"`
	Episodes []Item `json:"episodes"`
}

type groupBuilder struct {
	name    string
	key     string
	seasons map[int][]Item
	used    map[int]map[int]bool // season -> episode numbers taken
}

// Group builds the per-series view from classified series items. It is a pure
// derivation: same input, same output, and it can always be recomputed from
// the current item set.
//
// Items without a season default to season 1. Items without an episode number
// are accepted rather than dropped and get the next free number in their
// season, in insertion order. A duplicate (season, episode) pair within a
// group is discarded, first stream wins.
func Group(items []Item) []SeriesGroup {
	byKey := map[string]*groupBuilder{}
	var order []string

	for _, it := range items {
		base := series.BaseName(it.Name)
		if base == "" {
			base = it.Name
		}
		key := series.NormalizeKey(base)
		if key == "" {
			continue
		}
		b, ok := byKey[key]
		if !ok {
			b = &groupBuilder{
				name:    base,
				key:     key,
				seasons: map[int][]Item{},
				used:    map[int]map[int]bool{},
			}
			byKey[key] = b
			order = append(order, key)
		}
		b.add(it)
	}

	out := make([]SeriesGroup, 0, len(byKey))
	for _, key := range order {
		out = append(out, byKey[key].build())
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := series.NormalizeKey(out[i].Name), series.NormalizeKey(out[j].Name)
		if ki != kj {
			return ki < kj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (b *groupBuilder) add(it Item) {
	season := it.Season
	if season <= 0 {
		season = 1
		it.Season = season
	}
	if b.used[season] == nil {
		b.used[season] = map[int]bool{}
	}
	if it.Episode > 0 {
		if b.used[season][it.Episode] {
			return // duplicate stream, first wins
		}
		b.used[season][it.Episode] = true
	}
	b.seasons[season] = append(b.seasons[season], it)
}

func (b *groupBuilder) build() SeriesGroup {
	numbers := make([]int, 0, len(b.seasons))
	for n := range b.seasons {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	g := SeriesGroup{
		ID:   "series_" + strconv.FormatUint(contentHash(b.key, 0, 0), 10),
		Name: b.name,
	}
	for _, n := range numbers {
		eps := b.seasons[n]
		// Items that carried no episode number get the next free slot in
		// insertion order, so unnumbered episodes stay distinct and stable.
		next := 1
		for i := range eps {
			if eps[i].Episode > 0 {
				continue
			}
			for b.used[n][next] {
				next++
			}
			eps[i].Episode = next
			eps[i].ID = StableID(eps[i].Name, n, next)
			b.used[n][next] = true
		}
		sort.SliceStable(eps, func(i, j int) bool {
			return eps[i].Episode < eps[j].Episode
		})
		g.Seasons = append(g.Seasons, Season{Number: n, Episodes: eps})
	}
	return g
}

// flattenEpisodes returns the episode items of the grouped view in group,
// season, episode order. The grouped view is authoritative once built: it
// carries the assigned numbers and recomputed IDs for entries that arrived
// unnumbered, so flattening it yields collision-free items.
func flattenEpisodes(groups []SeriesGroup) []Item {
	var out []Item
	for _, g := range groups {
		for _, s := range g.Seasons {
			out = append(out, s.Episodes...)
		}
	}
	return out
}

// Merge appends items from incoming whose name is not already present in
// existing. Dedup is by exact name equality; a later duplicate is dropped,
// never merged or overwritten.
func Merge(existing, incoming []Item) []Item {
	seen := make(map[string]bool, len(existing))
	for _, it := range existing {
		seen[it.Name] = true
	}
	out := existing
	for _, it := range incoming {
		if seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		out = append(out, it)
	}
	return out
}

// mergeEpisodes dedupes series items by full name so distinct episodes of one
// show (same base Name, different markers) all survive the merge.
func mergeEpisodes(existing, incoming []Item) []Item {
	seen := make(map[string]bool, len(existing))
	for _, it := range existing {
		seen[it.FullName] = true
	}
	out := existing
	for _, it := range incoming {
		if seen[it.FullName] {
			continue
		}
		seen[it.FullName] = true
		out = append(out, it)
	}
	return out
}
