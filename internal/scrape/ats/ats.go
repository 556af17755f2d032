// Package ats recognises hosted applicant tracking systems and lists their
// postings through the platforms' public APIs.
package ats

import (
	"context"
	"errors"
	"fmt"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/ats/greenhouse"
	"hiringscan-engine/internal/scrape/ats/lever"
	"hiringscan-engine/internal/scrape/ats/recruitee"
	"hiringscan-engine/internal/scrape/ats/smartrecruiters"
	"hiringscan-engine/internal/scrape/ats/teamtailor"
	"hiringscan-engine/internal/scrape/types"
)

// Detection is a matched platform. An empty Slug means the board could not be
// identified.
type Detection struct {
	Kind string
	Slug string
}

// BaseURLs override platform API roots, mostly for tests.
type BaseURLs struct {
	Lever           string
	Greenhouse      string
	Recruitee       string
	SmartRecruiters string
}

// Registry is the fixed-priority platform table.
type Registry struct {
	platforms []types.Platform
}

// NewRegistry builds the table in priority order: Lever, Greenhouse,
// Recruitee, Teamtailor, SmartRecruiters.
func NewRegistry(client *board.Client, urls BaseURLs) *Registry {
	return &Registry{platforms: []types.Platform{
		lever.New(client, urls.Lever),
		greenhouse.New(client, urls.Greenhouse),
		recruitee.New(client, urls.Recruitee),
		teamtailor.New(),
		smartrecruiters.New(client, urls.SmartRecruiters),
	}}
}

// Detect returns the first platform that matches, or nil.
func (r *Registry) Detect(url, html string) *Detection {
	for _, p := range r.platforms {
		if slug, ok := p.Match(url, html); ok {
			return &Detection{Kind: p.Name(), Slug: slug}
		}
	}
	return nil
}

// FetchJobs lists the postings of a detected board. Failures carry a reason
// (*types.ReasonError) when one applies.
func (r *Registry) FetchJobs(ctx context.Context, det *Detection, b *types.PostingBuilder) ([]domain.JobPosting, error) {
	if det == nil || det.Slug == "" {
		return []domain.JobPosting{}, types.NewReasonError(domain.ReasonATSMissingSlug, nil)
	}
	for _, p := range r.platforms {
		if p.Name() != det.Kind {
			continue
		}
		jobs, err := p.Fetch(ctx, det.Slug, b)
		if jobs == nil {
			jobs = []domain.JobPosting{}
		}
		return jobs, err
	}
	return []domain.JobPosting{}, fmt.Errorf("unknown ats kind %q", det.Kind)
}

// ErrorReason renders a fetch error for CrawlStats: the reason code when the
// error carries one, otherwise the error text.
func ErrorReason(err error) (domain.Reason, string) {
	var re *types.ReasonError
	if errors.As(err, &re) {
		return re.Reason, string(re.Reason)
	}
	return "", err.Error()
}
