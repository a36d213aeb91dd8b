package playlist

import (
	"bytes"
	"compress/gzip"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="espn.br" tvg-logo="http://logo/espn.png" group-title="CANAIS: ESPORTES",ESPN HD
http://host/stream/1.ts
#EXTINF:-1 tvg-id="" group-title="FILMES: LANÇAMENTOS 2024",Duna (2021) 1080p
http://host/movie/2.mp4
#EXTINF:-1 group-title="SÉRIES | DRAMA",Breaking Bad S01E05
http://host/series/3.mp4
`

func TestParsePairs(t *testing.T) {
	entries, err := ParseString(samplePlaylist)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	first := entries[0]
	if first.Name != "ESPN HD" {
		t.Errorf("Name = %q", first.Name)
	}
	if first.URL != "http://host/stream/1.ts" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Duration != "-1" {
		t.Errorf("Duration = %q", first.Duration)
	}
	if first.Attrs.TvgID != "espn.br" {
		t.Errorf("TvgID = %q", first.Attrs.TvgID)
	}
	if first.Attrs.GroupTitle != "CANAIS: ESPORTES" {
		t.Errorf("GroupTitle = %q", first.Attrs.GroupTitle)
	}
	// source order preserved
	if entries[1].Name != "Duna (2021) 1080p" || entries[2].Name != "Breaking Bad S01E05" {
		t.Errorf("order broken: %q, %q", entries[1].Name, entries[2].Name)
	}
}

func TestParseMissingHeader(t *testing.T) {
	in := "#EXTINF:-1,Channel One\nhttp://host/1.ts\n"
	entries, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "Channel One" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestParseQuotedComma(t *testing.T) {
	in := `#EXTINF:-1 group-title="Action, Adventure" tvg-name="Die Hard, Again",Die Hard 2
http://host/dh2.mp4
`
	entries, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "Die Hard 2" {
		t.Errorf("Name = %q, comma inside quotes split too early", e.Name)
	}
	if e.Attrs.GroupTitle != "Action, Adventure" {
		t.Errorf("GroupTitle = %q", e.Attrs.GroupTitle)
	}
	if e.Attrs.TvgName != "Die Hard, Again" {
		t.Errorf("TvgName = %q", e.Attrs.TvgName)
	}
}

func TestParseDanglingExtinf(t *testing.T) {
	in := `#EXTM3U
#EXTINF:-1,Dropped Channel
#EXTINF:-1,Kept Channel
http://host/kept.ts
#EXTINF:-1,Trailing Dangling
`
	entries, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "Kept Channel" {
		t.Fatalf("entries = %+v, want only Kept Channel", entries)
	}
}

func TestParseIgnoresDirectivesAndCRLF(t *testing.T) {
	in := "#EXTM3U\r\n#EXTVLCOPT:network-caching=1000\r\n#EXTINF:-1,CRLF Channel\r\nhttp://host/1.ts\r\n"
	entries, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "CRLF Channel" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestParseNonURLLineClearsPending(t *testing.T) {
	in := "#EXTINF:-1,Channel\nnot a url\nhttp://host/1.ts\n"
	entries, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want none (URL not adjacent)", entries)
	}
}

func TestParseExtraAttributes(t *testing.T) {
	in := `#EXTINF:-1 tvg-shift="2" catchup="default",Shifted
http://host/1.ts
`
	entries, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	got := entries[0].Attrs.Extra
	want := map[string]string{"tvg-shift": "2", "catchup": "default"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extra = %v, want %v", got, want)
	}
}

func TestParseDeterministic(t *testing.T) {
	a, err := ParseString(samplePlaylist)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseString(samplePlaylist)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated parse of identical input differs")
	}
}

func TestValidateDistinctErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrNotPlaylist},
		{"garbage", "hello\nworld\n", ErrNotPlaylist},
		{"marker only", "#EXTM3U\n", ErrNoEntries},
		{"extinf no url", "#EXTM3U\n#EXTINF:-1,Name\n", ErrNoURLs},
		{"ok", samplePlaylist, nil},
	}
	for _, tc := range cases {
		if got := Validate(tc.in); !errors.Is(got, tc.want) {
			t.Errorf("%s: Validate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLoadNoAdjacentURLs(t *testing.T) {
	// URL present but never directly after an EXTINF line.
	in := "#EXTM3U\n#EXTINF:-1,Name\njunk\nhttp://host/1.ts\n"
	_, err := Load(in)
	if !errors.Is(err, ErrNoURLs) {
		t.Fatalf("Load = %v, want ErrNoURLs", err)
	}
}

func TestParseBytesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(samplePlaylist)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	entries, err := ParseBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries from gzip input, want 3", len(entries))
	}
}

func TestDecodePlainPassthrough(t *testing.T) {
	got, err := Decode([]byte(samplePlaylist))
	if err != nil {
		t.Fatal(err)
	}
	if got != samplePlaylist {
		t.Error("plain text should pass through Decode unchanged")
	}
}

func TestHasURIScheme(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"http://host/x.ts", true},
		{"https://host/x.ts", true},
		{"rtmp://host/live", true},
		{"acestream://deadbeef", true},
		{"no scheme here", false},
		{"1234://bad-scheme", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := hasURIScheme(tc.line); got != tc.want {
			t.Errorf("hasURIScheme(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	for i := 0; i < 1000; i++ {
		sb.WriteString(`#EXTINF:-1 tvg-id="ch" group-title="CANAIS",Channel`)
		sb.WriteString("\nhttp://host/stream.ts\n")
	}
	in := sb.String()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseString(in); err != nil {
			b.Fatal(err)
		}
	}
}
