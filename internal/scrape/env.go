package scrape

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"hiringscan-engine/internal/config"
	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats"
	"hiringscan-engine/internal/scrape/ats/board"
	"hiringscan-engine/internal/scrape/fetch"
	"hiringscan-engine/internal/scrape/robots"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
	"hiringscan-engine/internal/tag"
)

// Env holds the collaborators shared by every worker of one run. All of them
// are safe for concurrent use.
type Env struct {
	Fetcher *fetch.Fetcher
	Robots  *robots.Policy
	ATS     *ats.Registry
	Log     *zap.Logger

	Rules          tag.Rules
	SnippetLen     int
	UseSitemap     bool
	SitemapMaxURLs int

	// CrawlTS stamps every posting of the run. Empty means "now" at NewEnv.
	CrawlTS string
}

// NewEnv wires robots, limiter, fetcher and ATS clients from cfg. client may
// be nil.
func NewEnv(cfg config.Config, client *http.Client, log *zap.Logger) *Env {
	if log == nil {
		log = zap.NewNop()
	}
	c := cfg.Crawl
	if client == nil {
		client = fetch.NewClient(c.RequestTimeout())
	}

	limiter := util.NewDomainLimiter(c.RequestsPerSecond)
	rp := robots.New(client, c.UserAgent, c.RespectRobots, limiter, log.Named("robots"))

	var sink fetch.Sink
	if c.DebugHTMLDir != "" {
		sink = fetch.NewDirSink(c.DebugHTMLDir, log.Named("sink"))
	}

	f := fetch.New(client, rp, limiter, fetch.Options{
		UserAgent:    c.UserAgent,
		Timeout:      c.RequestTimeout(),
		RetryBackoff: c.RetryBackoff(),
		MaxBodyBytes: c.MaxBodyBytes,
	}, sink, log.Named("fetch"))

	registry := ats.NewRegistry(&board.Client{
		HC:        client,
		Limiter:   limiter,
		UserAgent: f.UserAgent(),
	}, ats.BaseURLs{})

	return &Env{
		Fetcher:        f,
		Robots:         rp,
		ATS:            registry,
		Log:            log,
		Rules:          cfg.TagRules(),
		SnippetLen:     c.SnippetLength,
		UseSitemap:     c.UseSitemap,
		SitemapMaxURLs: c.SitemapMaxURLs,
		CrawlTS:        time.Now().UTC().Format(time.RFC3339),
	}
}

func (e *Env) builder(company domain.Company, host string) *types.PostingBuilder {
	return &types.PostingBuilder{
		Company:    company,
		Domain:     host,
		CrawlTS:    e.CrawlTS,
		SnippetLen: e.SnippetLen,
		Rules:      e.Rules,
	}
}

func (e *Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}
