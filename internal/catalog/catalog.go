// Package catalog classifies normalized playlist entries into movies, series
// and live channels and maintains the resulting catalog: type assignment is a
// deterministic function of (group title, display name), series episodes are
// grouped per show and season, and the whole catalog persists as atomic JSON.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Type is the content type assigned to a catalog item.
type Type string

const (
	TypeMovie  Type = "movie"
	TypeSeries Type = "series"
	TypeLive   Type = "live"
)

// Item is one catalog unit. Immutable once classified; reclassifying the same
// raw input reproduces the same Item, including its ID.
type Item struct {
	// ID is derived from Name+Season+Episode, so repeated imports of the
	// same source upsert instead of duplicating.
	ID string `json:"id"`
	// Name is the canonical title with season/episode/quality markers stripped.
	Name string `json:"name"`
	// FullName is the original display name, kept for diagnostics/fallback.
	FullName   string `json:"full_name"`
	LogoURL    string `json:"logo_url,omitempty"`
	GroupTitle string `json:"group_title,omitempty"`
	Type       Type   `json:"type"`
	// Season/Episode are set only for series items; 0 means unknown and is
	// resolved by the grouper.
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
	StreamURL string `json:"stream_url"`
}

// StableID returns the deterministic content identity for an item. Same
// name/season/episode always hashes to the same ID; no clock or randomness.
func StableID(name string, season, episode int) string {
	return "item_" + strconv.FormatUint(contentHash(name, season, episode), 10)
}

func contentHash(name string, season, episode int) uint64 {
	h := uint64(0)
	for _, c := range name {
		h = h*31 + uint64(c)
	}
	h = h*31 + uint64(season)
	h = h*31 + uint64(episode)
	return h
}

// Catalog is the normalized catalog: movies, grouped series and live channels.
type Catalog struct {
	mu     sync.RWMutex
	Movies []Item        `json:"movies"`
	Series []SeriesGroup `json:"series"`
	Live   []Item        `json:"live"`

	// seriesItems holds the episode-level series items the groups are
	// derived from; groups are a rebuildable view, never primary state.
	seriesItems []Item
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Replace swaps the whole catalog content and rebuilds the series groups.
// The episode-level items are re-derived from the grouped view so fallback
// episode numbers and the IDs recomputed from them are canonical everywhere,
// including the flat Items() view the store consumes.
func (c *Catalog) Replace(movies, seriesItems, live []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Movies = movies
	c.Live = live
	c.Series = Group(seriesItems)
	c.seriesItems = flattenEpisodes(c.Series)
}

// MergeImport merges newly classified items into the catalog. Duplicates are
// dropped by exact name equality, first-seen wins; series groups are rebuilt.
func (c *Catalog) MergeImport(movies, seriesItems, live []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Movies = Merge(c.Movies, movies)
	c.Live = Merge(c.Live, live)
	c.Series = Group(mergeEpisodes(c.seriesItems, seriesItems))
	c.seriesItems = flattenEpisodes(c.Series)
}

// Snapshot returns copies of movies, series groups and live channels for
// read-only use.
func (c *Catalog) Snapshot() (movies []Item, series []SeriesGroup, live []Item) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	movies = make([]Item, len(c.Movies))
	copy(movies, c.Movies)
	series = make([]SeriesGroup, len(c.Series))
	copy(series, c.Series)
	live = make([]Item, len(c.Live))
	copy(live, c.Live)
	return movies, series, live
}

// Items returns every catalog item as one flat slice, the shape the store's
// upsert-by-id consumer expects.
func (c *Catalog) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, 0, len(c.Movies)+len(c.seriesItems)+len(c.Live))
	out = append(out, c.Movies...)
	out = append(out, c.seriesItems...)
	out = append(out, c.Live...)
	return out
}

// Save writes the catalog to path as JSON using a temp-file-then-rename
// strategy so readers never see a partially-written file.
func (c *Catalog) Save(path string) error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(path))
	tmp, err := os.CreateTemp(dir, ".catalog-*.json.tmp")
	if err != nil {
		return fmt.Errorf("catalog save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("catalog save: write: %w", writeErr)
		}
		return fmt.Errorf("catalog save: close: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: rename: %w", err)
	}
	return nil
}

// Load replaces the catalog with the contents of path (JSON). Series groups
// are flattened back to episode items and regrouped, so the grouped view is
// always derived the same way no matter where the items came from.
func (c *Catalog) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var out struct {
		Movies []Item        `json:"movies"`
		Series []SeriesGroup `json:"series"`
		Live   []Item        `json:"live"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	c.Replace(out.Movies, flattenEpisodes(out.Series), out.Live)
	return nil
}
