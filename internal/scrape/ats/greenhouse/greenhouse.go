package greenhouse

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://boards-api.greenhouse.io"

// boards.greenhouse.io/<slug>, job-boards.greenhouse.io/<slug> and the embed
// script boards.greenhouse.io/embed/job_board/js?for=<slug>.
var boardLink = regexp.MustCompile(`(?i)(?:boards|job-boards)(?:\.eu)?\.greenhouse\.io/(?:embed/job_board(?:/js)?\?for=)?([A-Za-z0-9_-]+)`)

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

func (s *Scraper) Name() string { return domain.SourceGreenhouse }

func (s *Scraper) Match(url, page string) (string, bool) {
	if !strings.Contains(url, "greenhouse.io") && !strings.Contains(page, "boards.greenhouse.io") {
		return "", false
	}
	if slug := board.SegmentAfter(url, func(seg string) bool {
		return strings.Contains(seg, "greenhouse")
	}); slug != "" {
		return slug, true
	}
	return board.ScanHTML(boardLink, page, "embed"), true
}

type ghJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Content string `json:"content"` // entity-escaped html
}

type ghResponse struct {
	Jobs []ghJob `json:"jobs"`
}

func (s *Scraper) Fetch(ctx context.Context, slug string, b *types.PostingBuilder) ([]domain.JobPosting, error) {
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", s.baseURL, slug)

	var resp ghResponse
	if err := s.client.GetJSON(ctx, apiURL, &resp); err != nil {
		return nil, fmt.Errorf("greenhouse %s: %w", slug, err)
	}

	out := make([]domain.JobPosting, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		out = append(out, b.Build(types.Fields{
			Title:       j.Title,
			URL:         j.AbsoluteURL,
			Location:    util.NormalizeLocation(j.Location.Name),
			PostedDate:  j.UpdatedAt,
			Description: util.HTMLToSnippet(html.UnescapeString(j.Content), 0),
			Source:      domain.SourceGreenhouse,
		}))
	}
	return out, nil
}
