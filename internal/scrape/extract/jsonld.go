// Package extract turns fetched pages into job postings.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

// JSONLD returns a posting for every schema.org JobPosting found in the
// page's ld+json blocks. Blocks that do not parse are skipped.
func JSONLD(html, baseURL string, b *types.PostingBuilder) []domain.JobPosting {
	jobs := []domain.JobPosting{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return jobs
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return
		}
		for _, item := range ldItems(data) {
			if !isJobPosting(item["@type"]) {
				continue
			}
			jobs = append(jobs, ldPosting(item, baseURL, b))
		}
	})
	return jobs
}

// ldItems flattens an object, an object with @graph, or a list of objects.
func ldItems(data any) []map[string]any {
	var out []map[string]any
	switch v := data.(type) {
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func isJobPosting(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func ldPosting(item map[string]any, baseURL string, b *types.PostingBuilder) domain.JobPosting {
	href := str(item["url"])
	if href == "" {
		href = idOrString(item["mainEntityOfPage"])
	}
	if href == "" {
		href = baseURL
	}
	jobURL := util.ResolveURL(baseURL, href)
	if jobURL == "" {
		jobURL = href
	}

	return b.Build(types.Fields{
		Title:          str(item["title"]),
		URL:            jobURL,
		Location:       ldLocation(item["jobLocation"]),
		EmploymentType: ldEmploymentType(item["employmentType"]),
		PostedDate:     str(item["datePosted"]),
		Description:    util.HTMLToSnippet(str(item["description"]), 0),
		Source:         domain.SourceJSONLD,
	})
}

func ldLocation(v any) string {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	loc, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	addr, ok := loc["address"].(map[string]any)
	if !ok {
		return ""
	}
	if l := str(addr["addressLocality"]); l != "" {
		return l
	}
	return str(addr["streetAddress"])
}

func ldEmploymentType(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var parts []string
		for _, x := range t {
			if s := str(x); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func idOrString(v any) string {
	if m, ok := v.(map[string]any); ok {
		return str(m["@id"])
	}
	return str(v)
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
