package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding. Durations are strings in the
// file ("6h", "30m") and parsed here.
type fileConfig struct {
	SourceURL       string  `yaml:"source_url"`
	ProviderBaseURL string  `yaml:"provider_url"`
	ProviderUser    string  `yaml:"provider_user"`
	ProviderPass    string  `yaml:"provider_pass"`
	CacheDir        string  `yaml:"cache_dir"`
	CatalogPath     string  `yaml:"catalog_path"`
	DBPath          string  `yaml:"db_path"`
	ListenAddr      string  `yaml:"listen_addr"`
	RefreshInterval string  `yaml:"refresh_interval"`
	UserAgent       string  `yaml:"user_agent"`
	RequestsPerHost float64 `yaml:"requests_per_host"`
}

// loadFile overlays settings from a YAML file onto c. Unset file fields leave
// the current values untouched.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	setIf(&c.SourceURL, fc.SourceURL)
	setIf(&c.ProviderBaseURL, fc.ProviderBaseURL)
	setIf(&c.ProviderUser, fc.ProviderUser)
	setIf(&c.ProviderPass, fc.ProviderPass)
	setIf(&c.CacheDir, fc.CacheDir)
	setIf(&c.CatalogPath, fc.CatalogPath)
	setIf(&c.DBPath, fc.DBPath)
	setIf(&c.ListenAddr, fc.ListenAddr)
	setIf(&c.UserAgent, fc.UserAgent)
	if fc.RequestsPerHost > 0 {
		c.RequestsPerHost = fc.RequestsPerHost
	}
	if fc.RefreshInterval != "" {
		d, err := time.ParseDuration(fc.RefreshInterval)
		if err != nil {
			return fmt.Errorf("config file %s: refresh_interval: %w", path, err)
		}
		c.RefreshInterval = d
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
