// Package teamtailor detects Teamtailor career sites. Their job API needs a
// customer key, so no postings are fetched.
package teamtailor

import (
	"context"
	"regexp"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/types"
)

var boardLink = regexp.MustCompile(`(?i)https?://([a-z0-9-]+)\.teamtailor\.com`)

type Scraper struct{}

func New() *Scraper { return &Scraper{} }

func (s *Scraper) Name() string { return domain.SourceTeamtailor }

func (s *Scraper) Match(url, html string) (string, bool) {
	if !strings.Contains(url, "teamtailor") && !strings.Contains(html, "teamtailor") {
		return "", false
	}
	if slug := board.Subdomain(url, ".teamtailor.com"); slug != "" {
		return slug, true
	}
	return board.ScanHTML(boardLink, html, "www", "app", "api", "scripts", "assets"), true
}

func (s *Scraper) Fetch(context.Context, string, *types.PostingBuilder) ([]domain.JobPosting, error) {
	return []domain.JobPosting{}, types.NewReasonError(domain.ReasonTeamtailorNotImplemented, nil)
}
