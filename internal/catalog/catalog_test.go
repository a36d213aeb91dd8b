package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleCatalog() *Catalog {
	c := New()
	c.Replace(
		[]Item{{ID: StableID("Duna", 0, 0), Name: "Duna", FullName: "Duna (2021) 1080p", Type: TypeMovie, StreamURL: "http://host/duna"}},
		[]Item{
			seriesItem("The Office S01E01", "The Office", 1, 1),
			seriesItem("The Office S01E02", "The Office", 1, 2),
		},
		[]Item{{ID: StableID("ESPN", 0, 0), Name: "ESPN", FullName: "ESPN HD", Type: TypeLive, StreamURL: "http://host/espn"}},
	)
	return c
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	c := sampleCatalog()
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	wm, ws, wl := c.Snapshot()
	gm, gs, gl := loaded.Snapshot()
	if !reflect.DeepEqual(gm, wm) {
		t.Errorf("movies = %+v, want %+v", gm, wm)
	}
	if !reflect.DeepEqual(gs, ws) {
		t.Errorf("series = %+v, want %+v", gs, ws)
	}
	if !reflect.DeepEqual(gl, wl) {
		t.Errorf("live = %+v, want %+v", gl, wl)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := sampleCatalog().Save(path); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("catalog mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte("old content"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := sampleCatalog().Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "The Office") {
		t.Error("saved catalog missing expected content")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := New().Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestItemsFlat(t *testing.T) {
	c := sampleCatalog()
	items := c.Items()
	if len(items) != 4 {
		t.Fatalf("Items() = %d, want 4 (1 movie + 2 episodes + 1 live)", len(items))
	}
	ids := map[string]bool{}
	for _, it := range items {
		if it.ID == "" {
			t.Errorf("item %q has empty ID", it.FullName)
		}
		ids[it.ID] = true
	}
	if len(ids) != 4 {
		t.Errorf("IDs not unique: %v", ids)
	}
}

func TestMergeImport(t *testing.T) {
	c := sampleCatalog()
	c.MergeImport(
		[]Item{
			{ID: StableID("Duna", 0, 0), Name: "Duna", FullName: "Duna dup", Type: TypeMovie},
			{ID: StableID("Matrix", 0, 0), Name: "Matrix", FullName: "Matrix (1999)", Type: TypeMovie},
		},
		[]Item{seriesItem("The Office S02E01", "The Office", 2, 1)},
		nil,
	)
	movies, series, _ := c.Snapshot()
	if len(movies) != 2 {
		t.Errorf("movies = %+v, want Duna kept + Matrix added", movies)
	}
	if len(series) != 1 {
		t.Fatalf("groups = %d, want 1", len(series))
	}
	if len(series[0].Seasons) != 2 {
		t.Errorf("seasons = %+v, want season 2 merged in", series[0].Seasons)
	}
}

func TestItemsUniqueIDsForUnnumberedEpisodes(t *testing.T) {
	// Entries with no markers arrive sharing StableID(name, 0, 0); the
	// assigned episode numbers must reach the flat view too, or upsert-by-id
	// collapses distinct streams into one row.
	c := New()
	c.Replace(nil, []Item{
		{ID: StableID("Desenho", 0, 0), Name: "Desenho", FullName: "Desenho parte um", Type: TypeSeries, StreamURL: "http://host/1"},
		{ID: StableID("Desenho", 0, 0), Name: "Desenho", FullName: "Desenho parte dois", Type: TypeSeries, StreamURL: "http://host/2"},
	}, nil)

	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("Items() = %d, want 2", len(items))
	}
	seen := map[string]string{}
	for _, it := range items {
		if prev, ok := seen[it.ID]; ok {
			t.Fatalf("duplicate ID %s for %q and %q", it.ID, prev, it.FullName)
		}
		seen[it.ID] = it.FullName
		if it.Episode == 0 {
			t.Errorf("item %q kept episode 0 in the flat view", it.FullName)
		}
	}

	// Flat view and grouped view agree on the assigned identity.
	_, groups, _ := c.Snapshot()
	eps := groups[0].Seasons[0].Episodes
	if eps[0].ID != items[0].ID || eps[1].ID != items[1].ID {
		t.Error("grouped view and Items() must carry the same recomputed IDs")
	}
}

func TestItemsStableAcrossSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	c := New()
	c.Replace(nil, []Item{
		{ID: StableID("Desenho", 0, 0), Name: "Desenho", FullName: "Desenho parte um", Type: TypeSeries, StreamURL: "http://host/1"},
		{ID: StableID("Desenho", 0, 0), Name: "Desenho", FullName: "Desenho parte dois", Type: TypeSeries, StreamURL: "http://host/2"},
	}, nil)
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Items(), c.Items()) {
		t.Error("Items() must be identical between a fresh import and a reloaded catalog")
	}
}

func TestReplaceRebuildsGroups(t *testing.T) {
	c := sampleCatalog()
	c.Replace(nil, []Item{seriesItem("Dark S01E01", "Dark", 1, 1)}, nil)
	_, series, _ := c.Snapshot()
	if len(series) != 1 || series[0].Name != "Dark" {
		t.Fatalf("series = %+v, want only Dark", series)
	}
}
