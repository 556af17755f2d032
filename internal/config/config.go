// engine/internal/config/config.go
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hiringscan-engine/internal/tag"
)

type Crawl struct {
	RequestsPerSecond     float64 `yaml:"requests_per_second"`
	MaxPagesPerDomain     int     `yaml:"max_pages_per_domain"`
	MaxDomains            int     `yaml:"max_domains"` // 0 = all
	MaxWorkers            int     `yaml:"max_workers"`
	MaxDetailPages        int     `yaml:"max_detail_pages"`
	SnippetLength         int     `yaml:"snippet_length"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
	RetryBackoffMillis    int     `yaml:"retry_backoff_ms"`
	MaxBodyBytes          int64   `yaml:"max_body_bytes"`
	UserAgent             string  `yaml:"user_agent"`
	RespectRobots         bool    `yaml:"respect_robots"`
	UseSitemap            bool    `yaml:"use_sitemap"`
	SitemapMaxURLs        int     `yaml:"sitemap_max_urls"`
	DebugHTMLDir          string  `yaml:"debug_html_dir"`
}

type Config struct {
	Crawl Crawl `yaml:"crawl"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Tags empty means tag.DefaultRules.
	Tags tag.Rules `yaml:"tags,omitempty"`
}

// Default returns the built-in configuration. Load decodes on top of it, so
// keys missing from a file keep these values.
func Default() Config {
	var cfg Config
	cfg.Crawl = Crawl{
		RequestsPerSecond:     1.0,
		MaxPagesPerDomain:     5,
		MaxDomains:            0,
		MaxWorkers:            4,
		MaxDetailPages:        20,
		SnippetLength:         300,
		RequestTimeoutSeconds: 20,
		RetryBackoffMillis:    2000,
		MaxBodyBytes:          5 * 1024 * 1024,
		UserAgent:             "hiringscan/1.0 (+https://github.com/hiringscan)",
		RespectRobots:         true,
		UseSitemap:            false,
		SitemapMaxURLs:        200,
	}
	cfg.Store.Path = "data/known_jobs.db"
	cfg.Log.Level = "info"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Crawl) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Crawl) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMillis) * time.Millisecond
}

// TagRules returns the configured rules, or the defaults when none are set.
func (c Config) TagRules() tag.Rules {
	if len(c.Tags) == 0 {
		return tag.DefaultRules()
	}
	return c.Tags
}
