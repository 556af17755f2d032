package scrape

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringscan-engine/internal/config"
	"hiringscan-engine/internal/domain"
)

// hostMux routes requests to in-memory handlers by host name. Unknown hosts
// fail like a DNS miss.
type hostMux map[string]http.Handler

func (m hostMux) RoundTrip(req *http.Request) (*http.Response, error) {
	h, ok := m[req.URL.Hostname()]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: req.URL.Hostname(), IsNotFound: true}
	}
	r := req.Clone(req.Context())
	if r.URL.Path == "" {
		r.URL.Path = "/"
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	res := rec.Result()
	res.Request = req
	return res, nil
}

func html(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}

func site(routes map[string]http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.Handle(pattern, h)
	}
	return mux
}

const acmeCareers = `<html><head>
<script type="application/ld+json">
[{"@type":"JobPosting","title":"Junior Data Engineer","url":"/careers/1",
  "jobLocation":{"address":{"addressLocality":"Helsinki"}},"description":"Build pipelines"},
 {"@type":"JobPosting","title":"Junior Data Engineer","url":"/careers/1"},
 {"@type":"JobPosting","title":"Marketing Trainee","url":"/careers/2"}]
</script></head><body><h1>Careers</h1></body></html>`

func testWorld() hostMux {
	return hostMux{
		"acme.fi": site(map[string]http.HandlerFunc{
			"GET /{$}":     html(`<a href="/careers">Careers</a><a href="/about">About</a>`),
			"GET /careers": html(acmeCareers),
		}),
		"beta.fi": site(map[string]http.HandlerFunc{
			"GET /{$}": html(`<a href="https://jobs.lever.co/beta">Open positions</a>`),
		}),
		"kappa.fi": site(map[string]http.HandlerFunc{
			"GET /{$}": html(`<a href="https://jobs.lever.co/kappa">Open positions</a>`),
		}),
		"api.lever.co": site(map[string]http.HandlerFunc{
			"GET /v0/postings/beta": func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[
{"text":"Salesforce Consultant","hostedUrl":"https://jobs.lever.co/beta/2","categories":{"location":"Espoo"}},
{"text":"IT Support","hostedUrl":"https://jobs.lever.co/beta/1","categories":{"location":"Tampere","commitment":"Full-time"}}]`))
			},
			"GET /v0/postings/kappa": func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		}),
		"gamma.fi": site(map[string]http.HandlerFunc{
			"GET /{$}": html(`<a href="/careers">Work with us</a>`),
			"GET /careers": html(`<ul>
<li><a href="/careers/developer">Developer</a></li>
<li><a href="/careers/designer">Designer</a></li></ul>`),
			"GET /careers/developer": html(`<h1>Junior Developer</h1><p>Join us</p>`),
			"GET /careers/designer":  html(`<p>No heading here</p>`),
		}),
		"delta.fi": site(map[string]http.HandlerFunc{
			"GET /robots.txt": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			},
			"GET /{$}": html(`<a href="/careers">Careers</a>`),
		}),
		"eps.fi": http.NotFoundHandler(),
		"zeta.fi": site(map[string]http.HandlerFunc{
			"GET /{$}": html(`<script src="https://scripts.teamtailor-cdn.com/widget.js"></script>
<a href="https://zeta.teamtailor.com/jobs">Jobs</a>`),
		}),
	}
}

func testCompanies() []domain.Company {
	return []domain.Company{
		{BusinessID: "1", Name: "Acme", Domain: "https://www.acme.fi/"},
		{BusinessID: "2", Name: "Beta", Domain: "beta.fi"},
		{BusinessID: "3", Name: "Gamma"},
		{BusinessID: "4", Name: "Delta", Domain: "delta.fi"},
		{BusinessID: "5", Name: "Eps", Domain: "eps.fi"},
		{BusinessID: "6", Name: "Zeta", Domain: "zeta.fi"},
		{BusinessID: "7", Name: "Acme Copy", Domain: "acme.fi"},
		{BusinessID: "8", Name: "Gone", Domain: "nohost.fi"},
		{BusinessID: "9", Name: "Kappa", Domain: "kappa.fi"},
		{BusinessID: "10", Name: "Nowhere"},
		{BusinessID: "11", Name: "Board", Domain: "fi.linkedin.com"},
	}
}

func testEnv(t *testing.T, world hostMux) *Env {
	t.Helper()
	cfg := config.Default()
	cfg.Crawl.RequestsPerSecond = 0
	cfg.Crawl.RetryBackoffMillis = 1
	env := NewEnv(cfg, &http.Client{Transport: world}, nil)
	env.CrawlTS = "2024-05-01T00:00:00Z"
	return env
}

func statsByDomain(stats []domain.CrawlStats) map[string]domain.CrawlStats {
	out := make(map[string]domain.CrawlStats, len(stats))
	for _, s := range stats {
		out[s.Domain] = s
	}
	return out
}

func TestCrawlJobsPipeline_Outcomes(t *testing.T) {
	env := testEnv(t, testWorld())
	var done atomic.Int32
	opts := Options{MaxWorkers: 3, OnDomainDone: func(domain.CrawlStats) { done.Add(1) }}

	res := CrawlJobsPipeline(context.Background(), env, testCompanies(), map[string]string{"3": "https://gamma.fi/"}, opts)

	require.Len(t, res.Stats, 8)
	assert.EqualValues(t, 8, done.Load())
	stats := statsByDomain(res.Stats)

	acme := stats["acme.fi"]
	assert.Equal(t, domain.SourceJSONLD, acme.Strategy)
	assert.Equal(t, 2, acme.JobsFound)
	assert.Equal(t, 2, acme.PagesFetched)

	beta := stats["beta.fi"]
	assert.Equal(t, domain.SourceLever, beta.ATS)
	assert.Equal(t, 2, beta.JobsFound)
	assert.Equal(t, 1, beta.PagesFetched)

	gamma := stats["gamma.fi"]
	assert.Equal(t, domain.SourceGenericHTML, gamma.Strategy)
	assert.Equal(t, 2, gamma.JobsFound)
	assert.Equal(t, 4, gamma.PagesFetched)

	assert.Equal(t, domain.ReasonRobotsDisallowAll, stats["delta.fi"].SkipReason)
	assert.Zero(t, stats["delta.fi"].PagesFetched)
	assert.Equal(t, domain.HTTPStatus(404), stats["eps.fi"].SkipReason)
	assert.Equal(t, domain.ReasonDNS, stats["nohost.fi"].SkipReason)

	zeta := stats["zeta.fi"]
	assert.Equal(t, domain.ReasonTeamtailorNotImplemented, zeta.SkipReason)
	assert.Equal(t, domain.SourceTeamtailor, zeta.ATS)
	assert.Empty(t, zeta.Error)

	kappa := stats["kappa.fi"]
	assert.Equal(t, domain.HTTPStatus(500), kappa.SkipReason)
	assert.Equal(t, "http_500", kappa.Error)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, DomainError{Domain: "kappa.fi", BusinessID: "9", Error: "http_500"}, res.Errors[0])

	require.Len(t, res.Jobs, 6)
	var urls []string
	for _, j := range res.Jobs {
		urls = append(urls, j.JobURL)
		assert.Equal(t, "2024-05-01T00:00:00Z", j.CrawlTS)
	}
	assert.Equal(t, []string{
		"https://acme.fi/careers/1",
		"https://acme.fi/careers/2",
		"https://jobs.lever.co/beta/1",
		"https://jobs.lever.co/beta/2",
		"https://gamma.fi/careers/designer",
		"https://gamma.fi/careers/developer",
	}, urls)

	first := res.Jobs[0]
	assert.Equal(t, "Acme", first.CompanyName)
	assert.Equal(t, "Junior Data Engineer", first.JobTitle)
	assert.Equal(t, "Helsinki", domain.Deref(first.LocationText))
	assert.Equal(t, []string{"junior", "data"}, first.Tags)

	// heading missing: title falls back to the final URL
	assert.Equal(t, "https://gamma.fi/careers/designer", res.Jobs[4].JobTitle)
	assert.Equal(t, "Junior Developer", res.Jobs[5].JobTitle)
}

func TestCrawlJobsPipeline_DeterministicAcrossWorkers(t *testing.T) {
	domainMap := map[string]string{"3": "gamma.fi"}

	serial := CrawlJobsPipeline(context.Background(), testEnv(t, testWorld()), testCompanies(), domainMap, Options{MaxWorkers: 1})
	parallel := CrawlJobsPipeline(context.Background(), testEnv(t, testWorld()), testCompanies(), domainMap, Options{MaxWorkers: 5})

	require.NotEmpty(t, serial.Jobs)
	assert.Equal(t, serial.Jobs, parallel.Jobs)
	assert.Equal(t, serial.Stats, parallel.Stats)
	assert.Equal(t, serial.Errors, parallel.Errors)
}

func TestCrawlJobsPipeline_MaxDomainsAndPageBudget(t *testing.T) {
	env := testEnv(t, testWorld())
	companies := []domain.Company{
		{BusinessID: "1", Name: "Acme", Domain: "acme.fi"},
		{BusinessID: "2", Name: "Beta", Domain: "beta.fi"},
	}

	res := CrawlJobsPipeline(context.Background(), env, companies, nil, Options{MaxDomains: 1, MaxPagesPerDomain: 1})

	require.Len(t, res.Stats, 1)
	acme := res.Stats[0]
	assert.Equal(t, "acme.fi", acme.Domain)
	// no seed fits the budget, so the careers page is only reached as a
	// generic detail page and its JSON-LD is never read
	assert.Equal(t, 2, acme.PagesFetched)
	assert.Equal(t, domain.SourceGenericHTML, acme.Strategy)
	require.Len(t, res.Jobs, 1)
	assert.Equal(t, "Careers", res.Jobs[0].JobTitle)
}

func TestCrawlJobsPipeline_RecoversPanics(t *testing.T) {
	env := testEnv(t, testWorld())
	env.ATS = nil

	companies := []domain.Company{
		{BusinessID: "1", Name: "Acme", Domain: "acme.fi"},
		{BusinessID: "4", Name: "Delta", Domain: "delta.fi"},
	}
	res := CrawlJobsPipeline(context.Background(), env, companies, nil, Options{MaxWorkers: 2})

	require.Len(t, res.Stats, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "acme.fi", res.Errors[0].Domain)
	assert.Contains(t, res.Errors[0].Error, "panic")
	assert.Equal(t, domain.ReasonRobotsDisallowAll, res.Stats[1].SkipReason)
}

func TestCrawlDomain_RobotsAllowsOnlyCareers(t *testing.T) {
	var rootHits int32
	world := hostMux{
		"omega.fi": site(map[string]http.HandlerFunc{
			"GET /robots.txt": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("User-agent: *\nAllow: /careers\nDisallow: /\n"))
			},
			"GET /{$}": func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&rootHits, 1)
				html(`<a href="/careers">Careers</a>`)(w, r)
			},
			"GET /careers": html(`<script type="application/ld+json">
[{"@type":"JobPosting","title":"Sales Trainee","url":"/careers/1"},
 {"@type":"JobPosting","title":"Data Analyst","url":"/careers/2"}]
</script>`),
		}),
	}
	env := testEnv(t, world)

	jobs, stats := CrawlDomain(context.Background(), env, domain.Company{BusinessID: "12", Name: "Omega"}, "omega.fi", Options{})

	assert.Empty(t, stats.SkipReason)
	assert.Equal(t, 1, stats.PagesFetched)
	assert.Equal(t, domain.SourceJSONLD, stats.Strategy)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://omega.fi/careers/1", jobs[0].JobURL)
	assert.Equal(t, "https://omega.fi/careers/2", jobs[1].JobURL)
	assert.Equal(t, int32(0), atomic.LoadInt32(&rootHits))
}

func TestResolveTargets(t *testing.T) {
	targets := ResolveTargets(testCompanies(), map[string]string{"3": "http://Gamma.fi/x"}, 0)

	var hosts []string
	for _, tg := range targets {
		hosts = append(hosts, tg.Domain)
	}
	assert.Equal(t, []string{"acme.fi", "beta.fi", "gamma.fi", "delta.fi", "eps.fi", "zeta.fi", "nohost.fi", "kappa.fi"}, hosts)
	assert.Equal(t, "Acme", targets[0].Company.Name)
	assert.Equal(t, "gamma.fi", targets[2].Company.Domain)

	assert.Len(t, ResolveTargets(testCompanies(), nil, 2), 2)
}

func TestOnSite(t *testing.T) {
	got := onSite("https://acme.fi", []string{
		"https://acme.fi/careers",
		"https://www.acme.fi/jobs",
		"https://jobs.acme.fi/",
		"https://other.fi/careers",
		"https://acme.fi/privacy-policy",
		"https://acme.fi/careers/brochure.pdf",
	})
	assert.Equal(t, []string{
		"https://acme.fi/careers",
		"https://www.acme.fi/jobs",
		"https://jobs.acme.fi/",
	}, got)
}
