package lever

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://api.lever.co"

var boardLink = regexp.MustCompile(`(?i)jobs(?:\.eu)?\.lever\.co/([A-Za-z0-9_.-]+)`)

type Scraper struct {
	client  *board.Client
	baseURL string
}

// New returns a Lever client. baseURL "" means the public API.
func New(client *board.Client, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Scraper) Name() string { return domain.SourceLever }

// Match: "lever.co" anywhere in url or html. The slug is the path segment
// after the lever.co host, else a jobs.lever.co link in the html, else "hire"
// for the hire.lever.co widget.
func (s *Scraper) Match(url, html string) (string, bool) {
	if !strings.Contains(url, "lever.co") && !strings.Contains(html, "lever.co") {
		return "", false
	}
	if slug := board.SegmentAfter(url, func(seg string) bool {
		return strings.HasSuffix(seg, "lever.co")
	}); slug != "" {
		return slug, true
	}
	if slug := board.ScanHTML(boardLink, html); slug != "" {
		return slug, true
	}
	if strings.Contains(html, "hire.lever.co") {
		return "hire", true
	}
	return "", true
}

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
		Team       string `json:"team"`
	} `json:"categories"`
	DescriptionPlain string `json:"descriptionPlain"`
	Description      string `json:"description"` // html
}

func (s *Scraper) Fetch(ctx context.Context, slug string, b *types.PostingBuilder) ([]domain.JobPosting, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.baseURL, slug)

	var postings []leverPosting
	if err := s.client.GetJSON(ctx, apiURL, &postings); err != nil {
		return nil, fmt.Errorf("lever %s: %w", slug, err)
	}

	out := make([]domain.JobPosting, 0, len(postings))
	for _, p := range postings {
		jobURL := p.HostedURL
		if jobURL == "" {
			jobURL = p.ApplyURL
		}
		desc := p.DescriptionPlain
		if desc == "" {
			desc = util.HTMLToSnippet(p.Description, 0)
		}
		posted := ""
		if p.CreatedAt > 0 {
			posted = strconv.FormatInt(p.CreatedAt, 10)
		}

		out = append(out, b.Build(types.Fields{
			Title:          p.Text,
			URL:            jobURL,
			Location:       util.NormalizeLocation(p.Categories.Location),
			EmploymentType: p.Categories.Commitment,
			PostedDate:     posted,
			Description:    desc,
			Source:         domain.SourceLever,
		}))
	}
	return out, nil
}
