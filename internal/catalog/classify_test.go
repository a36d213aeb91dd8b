package catalog

import (
	"reflect"
	"testing"

	"github.com/streamcat/stream-catalog/internal/playlist"
)

func entry(group, name string) playlist.Entry {
	return playlist.Entry{
		Duration: "-1",
		Attrs:    playlist.Attributes{GroupTitle: group},
		Name:     name,
		URL:      "http://host/stream",
	}
}

func TestClassifyByExample(t *testing.T) {
	res := Classify([]playlist.Entry{
		entry("FILMES: LANÇAMENTOS 2024", "Duna (2021) 1080p"),
		entry("SÉRIES | DRAMA", "Breaking Bad S01E05"),
		entry("CANAIS: ESPORTES", "ESPN HD"),
	}, nil)

	if len(res.Movies) != 1 || len(res.Series) != 1 || len(res.Live) != 1 {
		t.Fatalf("partition = %d/%d/%d, want 1/1/1", len(res.Movies), len(res.Series), len(res.Live))
	}
	movie := res.Movies[0]
	if movie.Name != "Duna" {
		t.Errorf("movie Name = %q, want Duna", movie.Name)
	}
	if movie.GroupTitle != "LANÇAMENTOS 2024" {
		t.Errorf("movie GroupTitle = %q", movie.GroupTitle)
	}
	ep := res.Series[0]
	if ep.Name != "Breaking Bad" || ep.Season != 1 || ep.Episode != 5 {
		t.Errorf("series item = %+v", ep)
	}
	live := res.Live[0]
	if live.FullName != "ESPN HD" || live.GroupTitle != "ESPORTES" {
		t.Errorf("live item = %+v", live)
	}
}

func TestClassifyRulePrecedence(t *testing.T) {
	cases := []struct {
		group string
		name  string
		want  Type
	}{
		// series marker in the name outranks the movie year/resolution check
		{"", "Show (2021) S01E02", TypeSeries},
		// group title series signal beats everything
		{"SÉRIES", "Anything At All", TypeSeries},
		// movie group signal
		{"VOD", "Some Title", TypeMovie},
		{"CINEMA", "Some Title", TypeMovie},
		// resolution in name without any group
		{"", "Film 720p", TypeMovie},
		// year in parens
		{"", "Film (1999)", TypeMovie},
		// live group signals
		{"AO VIVO", "Globo", TypeLive},
		{"TV ABERTA", "Globo", TypeLive},
		// loose series marker as second chance
		{"", "Show S03", TypeSeries},
		{"", "Desenho temporada 2", TypeSeries},
		// permissive fallback
		{"", "Mystery Channel", TypeLive},
		{"RANDOM GROUP", "Plain Name", TypeLive},
	}
	for _, tc := range cases {
		res := Classify([]playlist.Entry{entry(tc.group, tc.name)}, nil)
		var got Type
		switch {
		case len(res.Movies) == 1:
			got = TypeMovie
		case len(res.Series) == 1:
			got = TypeSeries
		case len(res.Live) == 1:
			got = TypeLive
		}
		if got != tc.want {
			t.Errorf("classify(%q, %q) = %s, want %s", tc.group, tc.name, got, tc.want)
		}
	}
}

func TestClassifySkipsEmptyNames(t *testing.T) {
	var skipped []string
	obs := &captureObserver{onSkip: func(name, reason string) { skipped = append(skipped, reason) }}
	res := Classify([]playlist.Entry{
		entry("CANAIS", ""),
		entry("CANAIS", "  "),
		entry("CANAIS", "Kept"),
	}, obs)
	total := len(res.Movies) + len(res.Series) + len(res.Live)
	if total != 1 {
		t.Fatalf("total classified = %d, want 1", total)
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v, want 2 entries", skipped)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	entries := []playlist.Entry{
		entry("FILMES", "Duna (2021)"),
		entry("SÉRIES", "Dark S01E01"),
		entry("CANAIS", "Globo"),
	}
	a := Classify(entries, nil)
	b := Classify(entries, nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated classification of identical input differs")
	}
}

func TestClassifyObserverRuleNames(t *testing.T) {
	var rules []string
	obs := &captureObserver{onItem: func(_ Item, rule string) { rules = append(rules, rule) }}
	Classify([]playlist.Entry{
		entry("SÉRIES", "Dark S01E01"),
		entry("FILMES", "Duna"),
		entry("", "Film 1080p"),
		entry("CANAIS", "Globo"),
		entry("", "Show S03"),
		entry("", "Unknown"),
	}, obs)
	want := []string{"series-signal", "movie-group", "movie-name", "live-group", "series-name-loose", "fallback-live"}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("rules = %v, want %v", rules, want)
	}
}

func TestNormalizeGroupTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"CANAIS: ESPORTES", "ESPORTES"},
		{"FILMES | AÇÃO", "AÇÃO"},
		{"SÉRIES｜DRAMA", "SÉRIES｜DRAMA"}, // fullwidth bar is not a separator
		{"ESPORTES", "ESPORTES"},
		{"NEWS: WORLD", "NEWS: WORLD"}, // unknown prefix kept
		{"CANAIS:", "CANAIS:"},         // nothing after the separator
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeGroupTitle(tc.in); got != tc.want {
			t.Errorf("NormalizeGroupTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStableID(t *testing.T) {
	a := StableID("The Office", 1, 2)
	b := StableID("The Office", 1, 2)
	if a != b {
		t.Error("same content must produce the same ID")
	}
	if StableID("The Office", 1, 3) == a {
		t.Error("different episode must change the ID")
	}
	if StableID("Other Show", 1, 2) == a {
		t.Error("different name must change the ID")
	}
}

type captureObserver struct {
	onItem func(Item, string)
	onSkip func(string, string)
}

func (c *captureObserver) ItemClassified(it Item, rule string) {
	if c.onItem != nil {
		c.onItem(it, rule)
	}
}

func (c *captureObserver) EntrySkipped(name, reason string) {
	if c.onSkip != nil {
		c.onSkip(name, reason)
	}
}
