package extract

import (
	"context"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/types"
)

// Strategy extracts postings from the pages fetched for one domain.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, pages []*types.Page) []domain.JobPosting
}

// Chain tries strategies in order until one yields postings.
type Chain []Strategy

// Run returns the name of the strategy that produced postings, or "" with
// an empty result.
func (c Chain) Run(ctx context.Context, pages []*types.Page) (string, []domain.JobPosting) {
	for _, s := range c {
		if jobs := s.Extract(ctx, pages); len(jobs) > 0 {
			return s.Name(), jobs
		}
	}
	return "", []domain.JobPosting{}
}

// JSONLDStrategy runs JSONLD on every page.
type JSONLDStrategy struct {
	Builder *types.PostingBuilder
}

func (JSONLDStrategy) Name() string { return domain.SourceJSONLD }

func (s JSONLDStrategy) Extract(_ context.Context, pages []*types.Page) []domain.JobPosting {
	var jobs []domain.JobPosting
	for _, p := range pages {
		jobs = append(jobs, JSONLD(p.HTML(), p.BaseURL(), s.Builder)...)
	}
	return jobs
}

// GenericStrategy runs Generic on the first page only.
type GenericStrategy struct {
	Fetcher   PageFetcher
	Builder   *types.PostingBuilder
	MaxDetail int
}

func (GenericStrategy) Name() string { return domain.SourceGenericHTML }

func (s GenericStrategy) Extract(ctx context.Context, pages []*types.Page) []domain.JobPosting {
	if len(pages) == 0 {
		return nil
	}
	p := pages[0]
	return Generic(ctx, s.Fetcher, p.HTML(), p.BaseURL(), s.Builder, s.MaxDetail)
}
