// Package playlist parses extended M3U/M3U8 playlist text into normalized
// entries. Parsing is lenient: a missing #EXTM3U marker, unknown directives
// and unquoted attributes are tolerated, and #EXTINF lines without a
// following URL are dropped rather than emitted as partial entries.
package playlist

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
)

const maxLineSize = 1 << 20 // 1 MiB per line; provider exports have very long EXTINF lines

// Attributes holds the well-known EXTINF key="value" attributes resolved at
// parse time. Keys not listed here land in Extra verbatim.
type Attributes struct {
	TvgID      string
	TvgName    string
	TvgLogo    string
	TvgChNo    string
	GroupTitle string
	Extra      map[string]string
}

// Entry is one playlist item: an #EXTINF metadata line paired with the stream
// URL on the following line.
type Entry struct {
	// Duration is the EXTINF duration field verbatim (usually "-1" for live).
	Duration string
	Attrs    Attributes
	// Name is the display label after the last unquoted comma on the EXTINF line.
	Name string
	URL  string
}

// Parse reads an M3U playlist and returns entries in source order. It never
// fails on malformed lines; only a read error from r is returned.
func Parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineSize)
	var entries []Entry
	var pending *Entry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTM3U") {
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			// A new EXTINF before the previous one saw a URL silently
			// replaces it; the dangling entry is never emitted.
			e := parseExtinf(line)
			pending = &e
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if pending != nil && hasURIScheme(line) {
			if pending.Name != "" {
				pending.URL = line
				entries = append(entries, *pending)
			}
			pending = nil
			continue
		}
		pending = nil
	}
	return entries, sc.Err()
}

// ParseBytes parses playlist data held in memory, sniffing gzip/bzip2/xz
// compression first (providers commonly serve compressed exports).
func ParseBytes(data []byte) ([]Entry, error) {
	r, err := decompressed(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Parse(r)
}

// ParseString parses playlist text.
func ParseString(content string) ([]Entry, error) {
	return Parse(strings.NewReader(content))
}

// Decode returns data as playlist text, decompressing first when the bytes
// carry a gzip/bzip2/xz header.
func Decode(data []byte) (string, error) {
	r, err := decompressed(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// decompressed wraps r with the matching decompressor based on magic bytes.
func decompressed(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek header: %w", err)
	}
	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, nil
	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		return bzip2.NewReader(br), nil
	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' &&
		header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return xzr, nil
	}
	return br, nil
}

// parseExtinf parses `#EXTINF:<duration> [key="value"]* ,<name>`. Unparseable
// pieces are omitted, never fatal.
func parseExtinf(line string) Entry {
	rest := strings.TrimPrefix(line, "#EXTINF:")
	rest = strings.TrimLeft(rest, " \t")

	// Duration runs to the first space or comma; kept verbatim.
	dur := rest
	for i := 0; i < len(rest); i++ {
		if rest[i] == ' ' || rest[i] == ',' {
			dur = rest[:i]
			rest = rest[i:]
			break
		}
	}
	if dur == rest {
		rest = ""
	}

	e := Entry{Duration: dur}

	// Split at the last comma outside quotes so names containing commas
	// inside quoted attribute values stay intact.
	if i := lastUnquotedComma(rest); i >= 0 {
		e.Name = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	} else {
		e.Name = strings.TrimSpace(strings.TrimPrefix(rest, ","))
		rest = ""
	}

	parseAttributes(rest, &e.Attrs)
	return e
}

// lastUnquotedComma returns the index of the last comma outside double quotes,
// or -1. Scans backwards like the quote state is symmetric front-to-back.
func lastUnquotedComma(s string) int {
	inQuotes := false
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

// parseAttributes extracts key="value" (and bare key=value) pairs with a
// quote-aware scan. Values may contain commas and '=' inside quotes.
func parseAttributes(s string, attrs *Attributes) {
	i := 0
	for i < len(s) {
		// Skip separators.
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == ',') {
			i++
		}
		// Key runs to '='.
		start := i
		for i < len(s) && s[i] != '=' && s[i] != ' ' {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			continue
		}
		key := s[start:i]
		i++ // consume '='
		var value string
		if i < len(s) && s[i] == '"' {
			i++
			vstart := i
			for i < len(s) && s[i] != '"' {
				i++
			}
			value = s[vstart:i]
			if i < len(s) {
				i++ // consume closing quote
			}
		} else {
			vstart := i
			for i < len(s) && s[i] != ' ' && s[i] != '\t' {
				i++
			}
			value = s[vstart:i]
		}
		if key == "" {
			continue
		}
		setAttribute(attrs, key, value)
	}
}

func setAttribute(attrs *Attributes, key, value string) {
	switch strings.ToLower(key) {
	case "tvg-id":
		attrs.TvgID = value
	case "tvg-name":
		attrs.TvgName = value
	case "tvg-logo":
		attrs.TvgLogo = value
	case "tvg-chno":
		attrs.TvgChNo = value
	case "group-title":
		attrs.GroupTitle = value
	default:
		if attrs.Extra == nil {
			attrs.Extra = make(map[string]string)
		}
		attrs.Extra[key] = value
	}
}

// hasURIScheme reports whether line starts with a URI scheme per RFC 3986
// (ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ) "://"). Accepts http, https,
// rtmp, rtsp, udp, acestream and friends; rejects comments and bare paths.
func hasURIScheme(line string) bool {
	i := strings.Index(line, "://")
	if i <= 0 {
		return false
	}
	c := line[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	for _, r := range line[1:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '+' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
