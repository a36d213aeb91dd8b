package playlist

import (
	"errors"
	"strings"
)

// Structural validation failures. These are the only errors the pipeline
// raises; each names the expectation that was violated so callers can show
// an actionable message (fix the file vs. pick a different URL).
var (
	// ErrNotPlaylist: input has neither an #EXTM3U marker nor any #EXTINF line.
	ErrNotPlaylist = errors.New("not a valid M3U playlist: no #EXTM3U or #EXTINF lines found")
	// ErrNoEntries: recognizably M3U, but no channel entries.
	ErrNoEntries = errors.New("no channel entries found: playlist contains no #EXTINF lines")
	// ErrNoURLs: #EXTINF entries present, but none paired with a stream URL.
	ErrNoURLs = errors.New("no valid stream URLs found after #EXTINF entries")
)

// Validate runs the cheap structural pre-check on raw playlist text. It is
// meant to run before a full parse so obviously broken input fails fast.
func Validate(content string) error {
	hasMarker := false
	hasExtinf := false
	hasURL := false
	for rest := content; rest != ""; {
		var line string
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i+1], rest[i+1:]
		} else {
			line, rest = rest, ""
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#EXTM3U"):
			hasMarker = true
		case strings.HasPrefix(line, "#EXTINF:"):
			hasExtinf = true
		case !strings.HasPrefix(line, "#") && hasURIScheme(line):
			hasURL = true
		}
		if hasExtinf && hasURL {
			return nil
		}
	}
	switch {
	case !hasMarker && !hasExtinf:
		return ErrNotPlaylist
	case !hasExtinf:
		return ErrNoEntries
	default:
		return ErrNoURLs
	}
}

// Load validates and parses content in one call. Zero parsed entries after a
// passing pre-check still reports ErrNoURLs (URLs present but never adjacent
// to an #EXTINF line).
func Load(content string) ([]Entry, error) {
	if err := Validate(content); err != nil {
		return nil, err
	}
	entries, err := ParseString(content)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoURLs
	}
	return entries, nil
}
