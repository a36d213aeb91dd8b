// Package config loads catalog service settings from a YAML file, a .env
// file, and STREAM_CATALOG_* environment variables, in that order of
// increasing precedence.
package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds playlist source, storage, and service settings.
type Config struct {
	// Playlist source. Either a full M3U URL, or an Xtream-style panel
	// (base URL + credentials) from which the M3U URL is built.
	SourceURL       string
	ProviderBaseURL string
	ProviderUser    string
	ProviderPass    string

	// Paths
	CacheDir    string
	CatalogPath string
	DBPath      string

	// Service
	ListenAddr      string
	RefreshInterval time.Duration
	UserAgent       string
	RequestsPerHost float64
}

// Load reads config from the environment, on top of an optional YAML file
// named by STREAM_CATALOG_CONFIG. Call LoadEnvFile(".env") before Load() to
// use a .env file.
func Load() (*Config, error) {
	c := &Config{
		ListenAddr:      ":8080",
		RefreshInterval: 6 * time.Hour,
		UserAgent:       "stream-catalog/1.0",
		RequestsPerHost: 1,
		CatalogPath:     "./catalog.json",
		DBPath:          "./catalog.db",
		CacheDir:        "/var/cache/stream-catalog",
	}
	if path := os.Getenv("STREAM_CATALOG_CONFIG"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.SourceURL = getEnv("STREAM_CATALOG_SOURCE_URL", c.SourceURL)
	c.ProviderBaseURL = getEnv("STREAM_CATALOG_PROVIDER_URL", c.ProviderBaseURL)
	c.ProviderUser = getEnv("STREAM_CATALOG_PROVIDER_USER", c.ProviderUser)
	c.ProviderPass = getEnv("STREAM_CATALOG_PROVIDER_PASS", c.ProviderPass)
	c.CacheDir = getEnv("STREAM_CATALOG_CACHE", c.CacheDir)
	c.CatalogPath = getEnv("STREAM_CATALOG_CATALOG", c.CatalogPath)
	c.DBPath = getEnv("STREAM_CATALOG_DB", c.DBPath)
	c.ListenAddr = getEnv("STREAM_CATALOG_LISTEN", c.ListenAddr)
	c.RefreshInterval = getEnvDuration("STREAM_CATALOG_REFRESH_INTERVAL", c.RefreshInterval)
	c.UserAgent = getEnv("STREAM_CATALOG_USER_AGENT", c.UserAgent)
	c.RequestsPerHost = getEnvFloat("STREAM_CATALOG_REQUESTS_PER_HOST", c.RequestsPerHost)

	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 6 * time.Hour
	}
	if c.RequestsPerHost <= 0 {
		c.RequestsPerHost = 1
	}
	// Subscription file fallback with "Username:" / "Password:" lines, the
	// format most panels mail out at renewal.
	if c.ProviderUser == "" || c.ProviderPass == "" {
		if user, pass, err := readSubscriptionFile(os.Getenv("STREAM_CATALOG_SUBSCRIPTION_FILE")); err == nil {
			if c.ProviderUser == "" {
				c.ProviderUser = user
			}
			if c.ProviderPass == "" {
				c.ProviderPass = pass
			}
		}
	}
	return c, nil
}

// SourceURLOrBuild returns SourceURL if set, otherwise an Xtream get.php URL
// built from the provider base URL and credentials. Empty string when neither
// is configured.
func (c *Config) SourceURLOrBuild() string {
	if c.SourceURL != "" {
		return c.SourceURL
	}
	if c.ProviderBaseURL == "" || c.ProviderUser == "" || c.ProviderPass == "" {
		return ""
	}
	base := strings.TrimSuffix(c.ProviderBaseURL, "/")
	return base + "/get.php?username=" + url.QueryEscape(c.ProviderUser) +
		"&password=" + url.QueryEscape(c.ProviderPass) + "&type=m3u_plus&output=ts"
}

// readSubscriptionFile reads "Username: x" and "Password: x" from path. When
// path is empty it globs ~/Documents/iptv.subscription.*.txt and takes the
// alphabetically last match, so the file keeps working across renewals.
func readSubscriptionFile(path string) (user, pass string, err error) {
	if path == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", "", os.ErrNotExist
		}
		matches, globErr := filepath.Glob(filepath.Join(home, "Documents", "iptv.subscription.*.txt"))
		if globErr != nil || len(matches) == 0 {
			return "", "", os.ErrNotExist
		}
		sort.Strings(matches)
		path = matches[len(matches)-1]
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Username:"):
			user = strings.TrimSpace(strings.TrimPrefix(line, "Username:"))
		case strings.HasPrefix(line, "Password:"):
			pass = strings.TrimSpace(strings.TrimPrefix(line, "Password:"))
		}
	}
	if err := sc.Err(); err != nil {
		return "", "", err
	}
	if user == "" || pass == "" {
		return "", "", fmt.Errorf("subscription file: missing Username or Password")
	}
	return user, pass, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
