// Package discovery produces candidate careers URLs for a company domain.
package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

// CommonPaths are probed on every domain, in this order.
var CommonPaths = []string{
	"/careers",
	"/jobs",
	"/rekry",
	"/tyopaikat",
	"/ura",
	"/open-positions",
	"/positions",
	"/join-us",
}

// Keywords mark a sitemap entry or anchor as careers related.
var Keywords = []string{"job", "career", "rekry", "tyopaikat", "ura"}

// DefaultSitemapMax bounds ParseSitemap when maxURLs <= 0.
const DefaultSitemapMax = 200

// DiscoverPaths returns existing followed by https://<domain><path> for each
// common path, de-duplicated in first-seen order.
func DiscoverPaths(domain string, existing []string) []string {
	base := "https://" + domain
	seeds := make([]string, 0, len(existing)+len(CommonPaths))
	seeds = append(seeds, existing...)
	for _, p := range CommonPaths {
		seeds = append(seeds, base+p)
	}
	return dedupe(seeds)
}

type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// ParseSitemap returns the <loc> entries of a urlset or sitemapindex that
// contain a keyword, at most maxURLs of them. Markup that is not well-formed
// XML is scanned leniently.
func ParseSitemap(xmlText, baseURL string, maxURLs int) []string {
	if maxURLs <= 0 {
		maxURLs = DefaultSitemapMax
	}

	locs, err := xmlLocs(xmlText)
	if err != nil {
		locs = lenientLocs(xmlText)
	}

	out := []string{}
	for _, loc := range locs {
		if len(out) >= maxURLs {
			break
		}
		loc = strings.TrimSpace(loc)
		if loc == "" || !hasKeyword(loc) {
			continue
		}
		if baseURL != "" {
			if abs := util.ResolveURL(baseURL, loc); abs != "" {
				loc = abs
			}
		}
		out = append(out, loc)
	}
	return out
}

func xmlLocs(text string) ([]string, error) {
	var doc sitemapDoc
	dec := xml.NewDecoder(bytes.NewReader([]byte(text)))
	dec.Strict = true
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	locs := make([]string, 0, len(doc.URLs)+len(doc.Sitemaps))
	for _, u := range doc.URLs {
		locs = append(locs, u.Loc)
	}
	for _, s := range doc.Sitemaps {
		locs = append(locs, s.Loc)
	}
	return locs, nil
}

func lenientLocs(text string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}
	var locs []string
	doc.Find("loc").Each(func(_ int, s *goquery.Selection) {
		locs = append(locs, strings.TrimSpace(s.Text()))
	})
	return locs
}

// FilterDiscoveryResults returns absolute URLs of anchors whose href or text
// contains a keyword.
func FilterDiscoveryResults(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []string{}
	}
	var urls []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.ToLower(util.VisibleText(a))
		if !hasKeyword(href) && !hasKeyword(text) {
			return
		}
		if abs := util.ResolveURL(baseURL, href); abs != "" {
			urls = append(urls, abs)
		}
	})
	return dedupe(urls)
}

// PageFetcher is the part of fetch.Fetcher discovery needs.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*types.Page, domain.Reason)
}

// SitemapSeeds fetches https://<host>/sitemap.xml and returns its careers
// entries. The fetch counts against the domain's rate limit and robots rules
// like any other page.
func SitemapSeeds(ctx context.Context, f PageFetcher, host string, maxURLs int) []string {
	sitemapURL := "https://" + host + "/sitemap.xml"
	page, reason := f.Fetch(ctx, sitemapURL)
	if reason != "" || page == nil {
		return nil
	}
	return ParseSitemap(page.HTML(), page.BaseURL(), maxURLs)
}

func hasKeyword(s string) bool {
	s = strings.ToLower(s)
	for _, k := range Keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
