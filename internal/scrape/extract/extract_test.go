package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/types"
)

const jsonldPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"Organization","name":"Test Oy"},
  {"@type":"JobPosting","title":"Backend Developer","url":"/jobs/1",
   "datePosted":"2024-01-02","employmentType":["FULL_TIME","PERMANENT"],
   "jobLocation":{"@type":"Place","address":{"addressLocality":"Helsinki"}},
   "description":"<p>Junior friendly <b>role</b></p>"}
]}
</script>
<script type="application/ld+json">
[{"@type":["JobPosting","Thing"],"title":"Data Analyst",
  "mainEntityOfPage":{"@id":"https://example.com/jobs/2"},
  "jobLocation":[{"address":{"streetAddress":"Mannerheimintie 1"}}],
  "employmentType":"PART_TIME"}]
</script>
<script type="application/ld+json">{ not json </script>
<script type="application/ld+json">{"@type":"WebPage","title":"ignored"}</script>
</head><body></body></html>`

func testBuilder() *types.PostingBuilder {
	return &types.PostingBuilder{
		Company: domain.Company{BusinessID: "123", Name: "Test Oy"},
		Domain:  "example.com",
		CrawlTS: "2024-01-01T00:00:00Z",
	}
}

func TestJSONLD(t *testing.T) {
	jobs := JSONLD(jsonldPage, "https://example.com/careers", testBuilder())
	require.Len(t, jobs, 2)

	a, b := jobs[0], jobs[1]
	assert.Equal(t, "Backend Developer", a.JobTitle)
	assert.Equal(t, "https://example.com/jobs/1", a.JobURL)
	assert.Equal(t, "Helsinki", domain.Deref(a.LocationText))
	assert.Equal(t, "FULL_TIME, PERMANENT", domain.Deref(a.EmploymentType))
	assert.Equal(t, "2024-01-02", domain.Deref(a.PostedDate))
	assert.Equal(t, "Junior friendly role", domain.Deref(a.DescriptionSnippet))
	assert.Equal(t, domain.SourceJSONLD, a.Source)
	assert.Equal(t, []string{"junior"}, a.Tags)
	assert.Equal(t, "2024-01-01T00:00:00Z", a.CrawlTS)

	assert.Equal(t, "https://example.com/jobs/2", b.JobURL)
	assert.Equal(t, "Mannerheimintie 1", domain.Deref(b.LocationText))
	assert.Equal(t, "PART_TIME", domain.Deref(b.EmploymentType))
	assert.Nil(t, b.DescriptionSnippet)
	assert.Nil(t, b.PostedDate)
}

func TestJSONLD_FallsBackToBaseURL(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"JobPosting","title":"Dev"}</script>`
	jobs := JSONLD(html, "https://example.com/careers/dev", testBuilder())
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://example.com/careers/dev", jobs[0].JobURL)
}

func TestJSONLD_NoBlocks(t *testing.T) {
	jobs := JSONLD("<html><body>nothing</body></html>", "https://example.com", testBuilder())
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestDiscoverJobLinks(t *testing.T) {
	html := `
	<a href="/jobs/1">Apply now</a>
	<a href="/about">About</a>
	`
	urls := DiscoverJobLinks(html, "https://example.com")
	assert.Equal(t, []string{"https://example.com/jobs/1"}, urls)
}

func TestDiscoverJobLinks_TextHintsAndDedupe(t *testing.T) {
	html := `
	<a href="/team/dev">Avoin tehtävä: kehittäjä</a>
	<a href="/team/dev">again</a>
	<a href="/contact">Contact</a>
	<a href="https://example.com/x?job=5">x</a>
	`
	urls := DiscoverJobLinks(html, "https://example.com/")
	assert.Equal(t, []string{"https://example.com/team/dev", "https://example.com/x?job=5"}, urls)
}

type stubFetcher struct {
	pages map[string]string
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*types.Page, domain.Reason) {
	s.calls++
	body, ok := s.pages[url]
	if !ok {
		return nil, domain.HTTPStatus(404)
	}
	return &types.Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(body)}, ""
}

func TestGeneric(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://example.com/jobs/1": "<h1>Support Engineer</h1><p>Helpdesk support</p>",
		"https://example.com/jobs/2": `<p>no heading</p><span class="job__location">Oulu, Oulu</span>`,
	}}
	list := `<a href="/jobs/1">Apply</a><a href="/jobs/2">Open role</a><a href="/jobs/3">Gone</a>`

	jobs := Generic(context.Background(), f, list, "https://example.com/careers", testBuilder(), 0)
	require.Len(t, jobs, 2)
	assert.Equal(t, 3, f.calls)

	assert.Equal(t, "Support Engineer", jobs[0].JobTitle)
	assert.Equal(t, "https://example.com/jobs/1", jobs[0].JobURL)
	assert.Equal(t, "Support Engineer Helpdesk support", domain.Deref(jobs[0].DescriptionSnippet))
	assert.Equal(t, []string{"it_support"}, jobs[0].Tags)
	assert.Equal(t, domain.SourceGenericHTML, jobs[0].Source)
	assert.Nil(t, jobs[0].LocationText)

	assert.Equal(t, "https://example.com/jobs/2", jobs[1].JobTitle)
	assert.Equal(t, "Oulu", domain.Deref(jobs[1].LocationText))
}

func TestGeneric_MaxDetail(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{}}
	list := `<a href="/jobs/1">a</a><a href="/jobs/2">b</a><a href="/jobs/3">c</a>`
	jobs := Generic(context.Background(), f, list, "https://example.com", testBuilder(), 2)
	assert.Empty(t, jobs)
	assert.Equal(t, 2, f.calls)
}

func TestChain(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://example.com/jobs/1": "<h1>Dev</h1>",
	}}
	b := testBuilder()
	chain := Chain{JSONLDStrategy{Builder: b}, GenericStrategy{Fetcher: f, Builder: b}}

	structured := &types.Page{URL: "https://example.com/careers", Body: []byte(jsonldPage)}
	name, jobs := chain.Run(context.Background(), []*types.Page{structured})
	assert.Equal(t, domain.SourceJSONLD, name)
	assert.Len(t, jobs, 2)
	assert.Zero(t, f.calls)

	plain := &types.Page{URL: "https://example.com/careers", Body: []byte(`<a href="/jobs/1">Apply</a>`)}
	name, jobs = chain.Run(context.Background(), []*types.Page{plain})
	assert.Equal(t, domain.SourceGenericHTML, name)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Dev", jobs[0].JobTitle)

	name, jobs = Chain{JSONLDStrategy{Builder: b}}.Run(context.Background(), []*types.Page{plain})
	assert.Empty(t, name)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}
