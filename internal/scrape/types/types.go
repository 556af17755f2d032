package types

import (
	"context"
	"fmt"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/util"
	"hiringscan-engine/internal/tag"
)

// Page is a successfully fetched document, already decoded to UTF-8.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// HTML returns the body as a string.
func (p *Page) HTML() string {
	if p == nil {
		return ""
	}
	return string(p.Body)
}

// BaseURL is the URL relative links on the page resolve against.
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// ReasonError carries a skip reason through an error return.
type ReasonError struct {
	Reason domain.Reason
	Err    error
}

func (e *ReasonError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *ReasonError) Unwrap() error { return e.Err }

// NewReasonError wraps err (may be nil) with a reason.
func NewReasonError(r domain.Reason, err error) *ReasonError {
	return &ReasonError{Reason: r, Err: err}
}

// Platform is an ATS with a public job board API.
type Platform interface {
	// Name is the ATS kind, also used as the posting source.
	Name() string
	// Match reports whether url or html belong to the platform and returns the
	// board slug ("" when it cannot be derived).
	Match(url, html string) (slug string, ok bool)
	// Fetch lists the board's open postings.
	Fetch(ctx context.Context, slug string, b *PostingBuilder) ([]domain.JobPosting, error)
}

// PostingBuilder stamps company data, the crawl timestamp, a bounded snippet
// and tags onto every posting of one domain crawl.
type PostingBuilder struct {
	Company    domain.Company
	Domain     string
	CrawlTS    string
	SnippetLen int
	Rules      tag.Rules
}

// Fields are the per-posting values a source provides. Description is plain
// text and is bounded by the builder.
type Fields struct {
	Title          string
	URL            string
	Location       string
	EmploymentType string
	PostedDate     string
	Description    string
	Source         string
}

// Build returns a posting. Tags are detected on title plus the full
// description, before truncation.
func (b *PostingBuilder) Build(f Fields) domain.JobPosting {
	n := b.SnippetLen
	if n <= 0 {
		n = util.DefaultSnippetLen
	}
	desc := util.CleanText(f.Description)
	title := util.CleanText(f.Title)

	return domain.JobPosting{
		CompanyBusinessID:  b.Company.BusinessID,
		CompanyName:        b.Company.Name,
		CompanyDomain:      b.Domain,
		JobTitle:           title,
		JobURL:             strings.TrimSpace(f.URL),
		LocationText:       domain.Opt(util.CleanText(f.Location)),
		EmploymentType:     domain.Opt(util.CleanText(f.EmploymentType)),
		PostedDate:         domain.Opt(strings.TrimSpace(f.PostedDate)),
		DescriptionSnippet: domain.Opt(util.Truncate(desc, n)),
		Source:             f.Source,
		Tags:               tag.DetectTags(title+" "+desc, b.Rules),
		CrawlTS:            b.CrawlTS,
	}
}
