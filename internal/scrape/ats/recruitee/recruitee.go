// Package recruitee reads the public offers API of Recruitee career sites.
package recruitee

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

const suffix = ".recruitee.com"

var boardLink = regexp.MustCompile(`(?i)https?://([a-z0-9-]+)\.recruitee\.com`)

type Scraper struct {
	client *board.Client
	// baseURL overrides https://<slug>.recruitee.com; the slug is then sent
	// as the first path segment.
	baseURL string
}

func New(client *board.Client, baseURL string) *Scraper {
	return &Scraper{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Scraper) Name() string { return domain.SourceRecruitee }

func (s *Scraper) Match(url, html string) (string, bool) {
	if !strings.Contains(url, "recruitee.com") && !strings.Contains(html, "recruitee.com") {
		return "", false
	}
	if slug := board.Subdomain(url, suffix); slug != "" {
		return slug, true
	}
	return board.ScanHTML(boardLink, html, "www", "app", "api"), true
}

type offer struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	CareersURL  string `json:"careers_url"`
	URL         string `json:"url"`
	Location    string `json:"location"`
	City        string `json:"city"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"` // html
}

type offersResponse struct {
	Offers []offer `json:"offers"`
}

func (s *Scraper) apiURL(slug string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s/api/offers/", s.baseURL, slug)
	}
	return fmt.Sprintf("https://%s%s/api/offers/", slug, suffix)
}

func (s *Scraper) Fetch(ctx context.Context, slug string, b *types.PostingBuilder) ([]domain.JobPosting, error) {
	var resp offersResponse
	if err := s.client.GetJSON(ctx, s.apiURL(slug), &resp); err != nil {
		return nil, fmt.Errorf("recruitee %s: %w", slug, err)
	}

	out := make([]domain.JobPosting, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		jobURL := o.CareersURL
		if jobURL == "" {
			jobURL = o.URL
		}
		loc := o.Location
		if loc == "" {
			loc = o.City
		}
		out = append(out, b.Build(types.Fields{
			Title:       o.Title,
			URL:         jobURL,
			Location:    util.NormalizeLocation(loc),
			PostedDate:  o.CreatedAt,
			Description: util.HTMLToSnippet(o.Description, 0),
			Source:      domain.SourceRecruitee,
		}))
	}
	return out, nil
}
