// Package cache keeps the raw text of the last successful playlist fetch per
// source URL, so a refresh that fails upstream can fall back to stale content.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// PlaylistPath returns the cache file path for a source URL. Stable: the same
// URL always maps to the same path.
func PlaylistPath(cacheDir, sourceURL string) string {
	return filepath.Join(cacheDir, "playlists", fileName(sourceURL))
}

func fileName(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	host := "unknown"
	if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
		host = sanitize(u.Host)
	}
	return host + "-" + hex.EncodeToString(sum[:8]) + ".m3u"
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	return s
}

// WritePlaylist stores content for sourceURL, creating the cache dir as
// needed. Written via temp file + rename so readers never see a torn file.
func WritePlaylist(cacheDir, sourceURL, content string) error {
	path := PlaylistPath(cacheDir, sourceURL)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".playlist-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.WriteString(content)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return writeErr
		}
		return closeErr
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ReadPlaylist returns the cached content for sourceURL.
func ReadPlaylist(cacheDir, sourceURL string) (string, error) {
	data, err := os.ReadFile(PlaylistPath(cacheDir, sourceURL))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
