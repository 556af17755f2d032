package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

// DefaultMaxDetailPages bounds Generic when maxDetail <= 0.
const DefaultMaxDetailPages = 20

var (
	jobURLHints  = []string{"/jobs", "/careers", "/positions", "/rekry", "/tyopaikat", "?job", "open-position"}
	jobTextHints = []string{"apply", "hae", "avoin", "position", "job", "role", "tehtävä"}
)

// PageFetcher is the part of fetch.Fetcher the extractors need.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*types.Page, domain.Reason)
}

// DiscoverJobLinks returns absolute URLs of anchors that look like job
// links, by href or by visible text.
func DiscoverJobLinks(html, baseURL string) []string {
	urls := []string{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return urls
	}

	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target := util.ResolveURL(baseURL, href)
		if target == "" || seen[target] {
			return
		}
		text := strings.ToLower(util.VisibleText(a))
		if containsAny(strings.ToLower(href), jobURLHints) || containsAny(text, jobTextHints) {
			seen[target] = true
			urls = append(urls, target)
		}
	})
	return urls
}

// Generic follows up to maxDetail job-looking links from html and builds one
// posting per detail page: first h1 as title (else the final URL), visible
// body text as description, location when the page labels one. Detail pages
// that fail to fetch are skipped.
func Generic(ctx context.Context, f PageFetcher, html, baseURL string, b *types.PostingBuilder, maxDetail int) []domain.JobPosting {
	if maxDetail <= 0 {
		maxDetail = DefaultMaxDetailPages
	}
	candidates := DiscoverJobLinks(html, baseURL)
	if len(candidates) > maxDetail {
		candidates = candidates[:maxDetail]
	}

	jobs := []domain.JobPosting{}
	for _, u := range candidates {
		if ctx.Err() != nil {
			break
		}
		page, reason := f.Fetch(ctx, u)
		if reason != "" || page == nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML()))
		if err != nil {
			continue
		}

		final := page.BaseURL()
		title := util.CleanText(util.VisibleText(doc.Find("h1").First()))
		if title == "" {
			title = final
		}

		jobs = append(jobs, b.Build(types.Fields{
			Title:       title,
			URL:         final,
			Location:    util.FindLocation(doc),
			Description: util.VisibleText(doc.Find("body")),
			Source:      domain.SourceGenericHTML,
		}))
	}
	return jobs
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
