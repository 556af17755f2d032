package scrape

import (
	"context"

	"go.uber.org/zap"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/ats"
	"hiringscan-engine/internal/scrape/discovery"
	"hiringscan-engine/internal/scrape/extract"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

// countingFetcher counts successful fetches of one domain task. It is never
// shared between tasks.
type countingFetcher struct {
	f       extract.PageFetcher
	fetched int
	first   domain.Reason
}

func (c *countingFetcher) Fetch(ctx context.Context, url string) (*types.Page, domain.Reason) {
	page, reason := c.f.Fetch(ctx, url)
	if reason != "" {
		if c.first == "" {
			c.first = reason
		}
		return nil, reason
	}
	c.fetched++
	return page, ""
}

// CrawlDomain runs the per-domain pipeline: root fetch and ATS detection,
// then seed pages through the extractor chain. A domain is skipped as
// robots_disallow_all only when robots blocks the root and every seed. It
// never fails; problems end up in the returned stats.
func CrawlDomain(ctx context.Context, env *Env, company domain.Company, host string, opts Options) ([]domain.JobPosting, domain.CrawlStats) {
	opts = opts.withDefaults()
	log := env.logger().With(zap.String("domain", host))
	stats := domain.CrawlStats{Domain: host}
	b := env.builder(company, host)
	cf := &countingFetcher{f: env.Fetcher}

	rootURL := "https://" + host
	rootAllowed := env.Robots.CanFetch(ctx, rootURL)

	var root *types.Page
	attempts := 0
	if rootAllowed {
		var reason domain.Reason
		attempts++
		root, reason = cf.Fetch(ctx, rootURL)
		if root != nil {
			if det := env.ATS.Detect(root.BaseURL(), root.HTML()); det != nil {
				jobs := crawlATS(ctx, env, det, b, &stats, log)
				stats.PagesFetched = cf.fetched
				return jobs, stats
			}
		}
		if reason == domain.ReasonDNS {
			stats.SkipReason = reason
			return []domain.JobPosting{}, stats
		}
	}

	var found []string
	if root != nil {
		found = discovery.FilterDiscoveryResults(root.HTML(), root.BaseURL())
	}
	if env.UseSitemap {
		found = append(found, discovery.SitemapSeeds(ctx, env.Fetcher, host, env.SitemapMaxURLs)...)
	}
	seeds := env.Robots.Allowed(ctx, onSite(rootURL, discovery.DiscoverPaths(host, found)))
	if !rootAllowed && len(seeds) == 0 {
		log.Info("skipping domain", zap.String("reason", string(domain.ReasonRobotsDisallowAll)))
		stats.SkipReason = domain.ReasonRobotsDisallowAll
		return []domain.JobPosting{}, stats
	}

	var pages []*types.Page
	for _, seed := range seeds {
		if attempts >= opts.MaxPagesPerDomain || ctx.Err() != nil {
			break
		}
		attempts++
		page, _ := cf.Fetch(ctx, seed)
		if page == nil {
			continue
		}
		if det := env.ATS.Detect(page.BaseURL(), page.HTML()); det != nil && det.Slug != "" {
			log.Debug("seed links to ats", zap.String("url", seed), zap.String("ats", det.Kind))
			jobs := crawlATS(ctx, env, det, b, &stats, log)
			stats.PagesFetched = cf.fetched
			return jobs, stats
		}
		pages = append(pages, page)
	}
	if root != nil {
		pages = append(pages, root)
	}

	chain := extract.Chain{
		extract.JSONLDStrategy{Builder: b},
		extract.GenericStrategy{Fetcher: cf, Builder: b, MaxDetail: opts.MaxDetailPages},
	}
	strategy, jobs := chain.Run(ctx, pages)
	jobs = dedupeByURL(jobs)

	stats.PagesFetched = cf.fetched
	stats.JobsFound = len(jobs)
	stats.Strategy = strategy
	if cf.fetched == 0 {
		stats.SkipReason = cf.first
	}
	return jobs, stats
}

func crawlATS(ctx context.Context, env *Env, det *ats.Detection, b *types.PostingBuilder, stats *domain.CrawlStats, log *zap.Logger) []domain.JobPosting {
	stats.ATS = det.Kind
	stats.Strategy = det.Kind

	jobs, err := env.ATS.FetchJobs(ctx, det, b)
	if err != nil {
		reason, text := ats.ErrorReason(err)
		stats.SkipReason = reason
		switch reason {
		case domain.ReasonTeamtailorNotImplemented, domain.ReasonATSMissingSlug:
			log.Info("ats not fetchable", zap.String("ats", det.Kind), zap.String("reason", string(reason)))
			return []domain.JobPosting{}
		}
		stats.Error = text
		log.Warn("ats fetch failed",
			zap.String("ats", det.Kind),
			zap.String("slug", det.Slug),
			zap.Error(err))
	}
	jobs = dedupeByURL(jobs)
	stats.JobsFound = len(jobs)
	return jobs
}

// onSite drops seeds that leave the domain being crawled or point at files
// and boilerplate pages.
func onSite(rootURL string, seeds []string) []string {
	key := util.DomainKey(hostOf(rootURL))
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if util.DomainKey(hostOf(s)) == key && !isObviousJunkURL(s) {
			out = append(out, s)
		}
	}
	return out
}

// dedupeByURL keeps the first posting per canonical job URL.
func dedupeByURL(jobs []domain.JobPosting) []domain.JobPosting {
	seen := make(map[string]bool, len(jobs))
	out := make([]domain.JobPosting, 0, len(jobs))
	for _, j := range jobs {
		key := util.CanonicalizeURL(j.JobURL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
	}
	return out
}
