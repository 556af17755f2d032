package smartrecruiters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

const (
	DefaultBaseURL = "https://api.smartrecruiters.com"

	pageSize  = 100
	maxOffset = 5000
)

// jobs.smartrecruiters.com/<slug> and careers.smartrecruiters.com/<slug>.
var boardLink = regexp.MustCompile(`(?i)(?:jobs|careers)\.smartrecruiters\.com/([A-Za-z0-9_-]+)`)

type Scraper struct {
	client  *board.Client
	baseURL string
}

func New(client *board.Client, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Scraper) Name() string { return domain.SourceSmartRecruiters }

func (s *Scraper) Match(url, html string) (string, bool) {
	if !strings.Contains(url, "smartrecruiters.com") && !strings.Contains(html, "smartrecruiters.com") {
		return "", false
	}
	if slug := board.SegmentAfter(url, func(seg string) bool {
		return strings.HasSuffix(seg, ".smartrecruiters.com") && !strings.HasPrefix(seg, "api.")
	}); slug != "" {
		return slug, true
	}
	return board.ScanHTML(boardLink, html), true
}

// Public postings API:
// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type postingsResponse struct {
	Content    []posting `json:"content"`
	TotalFound int       `json:"totalFound"`
}

type posting struct {
	ID           string `json:"id"`
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	ReleasedDate string `json:"releasedDate"`
	Ref          string `json:"ref"`
	Location     struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	TypeOfEmployment struct {
		Label string `json:"label"`
	} `json:"typeOfEmployment"`
}

// Fetch pages through the postings list. The list carries no description,
// so postings have no snippet and are tagged on the title only.
func (s *Scraper) Fetch(ctx context.Context, slug string, b *types.PostingBuilder) ([]domain.JobPosting, error) {
	base := fmt.Sprintf("%s/v1/companies/%s/postings", s.baseURL, url.PathEscape(slug))

	out := []domain.JobPosting{}
	for offset := 0; offset <= maxOffset; offset += pageSize {
		var pr postingsResponse
		apiURL := fmt.Sprintf("%s?limit=%d&offset=%d", base, pageSize, offset)
		if err := s.client.GetJSON(ctx, apiURL, &pr); err != nil {
			return out, fmt.Errorf("smartrecruiters %s: %w", slug, err)
		}
		if len(pr.Content) == 0 {
			break
		}

		for _, p := range pr.Content {
			id := firstNonEmpty(p.ID, p.UUID)
			title := strings.TrimSpace(p.Name)
			if title == "" || id == "" {
				continue
			}
			loc := strings.Join(nonEmpty(p.Location.City, p.Location.Region, p.Location.Country), ", ")
			if loc == "" && p.Location.Remote {
				loc = "Remote"
			}
			out = append(out, b.Build(types.Fields{
				Title:          title,
				URL:            fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", slug, id),
				Location:       util.NormalizeLocation(loc),
				EmploymentType: p.TypeOfEmployment.Label,
				PostedDate:     p.ReleasedDate,
				Source:         domain.SourceSmartRecruiters,
			}))
		}

		if pr.TotalFound > 0 && offset+pageSize >= pr.TotalFound {
			break
		}
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
