package config

import (
	"fmt"
	"strings"

	"hiringscan-engine/internal/tag"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy along with any problems.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	// Normalize tag rules; keyword whitespace is significant ("bi "), so only
	// blank entries are dropped.
	var rules tag.Rules
	for _, r := range out.Tags {
		r.Tag = strings.TrimSpace(r.Tag)
		var kws []string
		for _, k := range r.Any {
			if strings.TrimSpace(k) != "" {
				kws = append(kws, k)
			}
		}
		r.Any = kws
		rules = append(rules, r)
	}
	out.Tags = rules

	out.Crawl.UserAgent = strings.TrimSpace(out.Crawl.UserAgent)
	out.Crawl.DebugHTMLDir = strings.TrimSpace(out.Crawl.DebugHTMLDir)
	out.Store.Path = strings.TrimSpace(out.Store.Path)
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))

	// ---- Validation rules ----

	c := out.Crawl
	if c.RequestsPerSecond <= 0 {
		res.addWarn("crawl.requests_per_second is %v; per-domain rate limiting is disabled.", c.RequestsPerSecond)
	} else if c.RequestsPerSecond > 5 {
		res.addWarn("crawl.requests_per_second is high (%v) and may get the crawler blocked.", c.RequestsPerSecond)
	}
	if c.MaxWorkers < 1 {
		res.addErr("crawl.max_workers must be >= 1")
	}
	if c.MaxPagesPerDomain < 1 {
		res.addErr("crawl.max_pages_per_domain must be >= 1")
	}
	if c.MaxDomains < 0 {
		res.addErr("crawl.max_domains must be >= 0 (0 = all)")
	}
	if c.MaxDetailPages < 0 {
		res.addErr("crawl.max_detail_pages must be >= 0")
	}
	if c.SnippetLength < 1 {
		res.addErr("crawl.snippet_length must be >= 1")
	}
	if c.RequestTimeoutSeconds <= 0 {
		res.addErr("crawl.request_timeout_seconds must be > 0")
	}
	if c.RetryBackoffMillis < 0 {
		res.addErr("crawl.retry_backoff_ms must be >= 0")
	}
	if c.MaxBodyBytes < 0 {
		res.addErr("crawl.max_body_bytes must be >= 0")
	}
	if c.SitemapMaxURLs < 0 {
		res.addErr("crawl.sitemap_max_urls must be >= 0")
	}
	if c.UserAgent == "" {
		res.addWarn("crawl.user_agent is empty; a default will be sent.")
	}
	if !c.RespectRobots {
		res.addWarn("crawl.respect_robots is false; robots.txt will be ignored.")
	}

	if out.Store.Path == "" {
		res.addErr("store.path is required")
	}

	switch out.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		res.addErr("log.level must be one of debug, info, warn, error (got %q)", out.Log.Level)
	}

	seenTag := map[string]bool{}
	for i, r := range out.Tags {
		if r.Tag == "" {
			res.addErr("tags[%d].tag is required", i)
		}
		if len(r.Any) == 0 {
			res.addErr("tags[%d].any must have at least 1 term", i)
		}
		if seenTag[r.Tag] {
			res.addWarn("tag %q appears more than once; its rules are merged.", r.Tag)
		}
		seenTag[r.Tag] = true
	}

	return out, res
}
