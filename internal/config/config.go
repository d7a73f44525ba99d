// Package config holds the static configuration that drives the crawl
// and index pipeline: the configured sites, and the fetch identity
// applied to every request. Loading a config file is this package's
// only concern; serving or watching one lives outside this repo.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultUserAgent = "SiteSearchBot/1.0"
	defaultDBPath    = "sitesearch.db"
)

// SiteConfig is one configured crawl root.
type SiteConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Config is the loaded shape of config.yaml.
type Config struct {
	Sites     []SiteConfig `yaml:"sites"`
	UserAgent string       `yaml:"user_agent"`
	Referrer  string       `yaml:"referrer"`
	DBPath    string       `yaml:"db_path"`
}

// SiteFor returns the configured site owning pageURL, matched by URL
// prefix, or false if no configured site owns it.
func (c *Config) SiteFor(pageURL string) (SiteConfig, bool) {
	for _, s := range c.Sites {
		if strings.HasPrefix(pageURL, s.URL) {
			return s, true
		}
	}
	return SiteConfig{}, false
}

// Load reads and parses a YAML config file, filling in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for i, s := range cfg.Sites {
		cfg.Sites[i].URL = strings.TrimSuffix(s.URL, "/")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}

	if len(cfg.Sites) == 0 {
		return nil, fmt.Errorf("config: no sites configured")
	}

	return &cfg, nil
}
