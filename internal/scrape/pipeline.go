// Package scrape crawls company domains for job postings. CrawlJobsPipeline
// fans one CrawlDomain task per domain out over a bounded worker pool and
// merges the results in a scheduling-independent order.
package scrape

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hiringscan-engine/internal/config"
	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/extract"
)

// Options bound the work of one run. Zero values take the defaults.
type Options struct {
	MaxDomains        int // 0 = all
	MaxWorkers        int
	MaxPagesPerDomain int
	MaxDetailPages    int

	// OnDomainDone is called from worker goroutines after each domain.
	OnDomainDone func(domain.CrawlStats)
}

const (
	DefaultMaxWorkers        = 4
	DefaultMaxPagesPerDomain = 5
)

// OptionsFromConfig copies the run budgets out of the crawl config.
func OptionsFromConfig(c config.Crawl) Options {
	return Options{
		MaxDomains:        c.MaxDomains,
		MaxWorkers:        c.MaxWorkers,
		MaxPagesPerDomain: c.MaxPagesPerDomain,
		MaxDetailPages:    c.MaxDetailPages,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	if o.MaxPagesPerDomain <= 0 {
		o.MaxPagesPerDomain = DefaultMaxPagesPerDomain
	}
	if o.MaxDetailPages <= 0 {
		o.MaxDetailPages = extract.DefaultMaxDetailPages
	}
	return o
}

// DomainError is a domain whose crawl failed outright: an ATS API error or
// a recovered panic.
type DomainError struct {
	Domain     string `json:"domain"`
	BusinessID string `json:"business_id"`
	Error      string `json:"error"`
}

type Result struct {
	Jobs   []domain.JobPosting
	Stats  []domain.CrawlStats
	Errors []DomainError
}

type slot struct {
	jobs  []domain.JobPosting
	stats domain.CrawlStats
	err   *DomainError
}

// CrawlJobsPipeline crawls every resolvable company domain. One domain's
// failure never affects another's. Jobs are sorted by (domain, url, title),
// stats and errors by domain, so the result does not depend on MaxWorkers.
func CrawlJobsPipeline(ctx context.Context, env *Env, companies []domain.Company, domainMap map[string]string, opts Options) Result {
	opts = opts.withDefaults()
	log := env.logger()
	targets := ResolveTargets(companies, domainMap, opts.MaxDomains)

	log.Info("crawl starting",
		zap.Int("companies", len(companies)),
		zap.Int("domains", len(targets)),
		zap.Int("workers", opts.MaxWorkers))
	start := time.Now()

	slots := make([]slot, len(targets))
	var g errgroup.Group
	g.SetLimit(opts.MaxWorkers)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			slots[i] = crawlSlot(ctx, env, t, opts, log)
			if opts.OnDomainDone != nil {
				opts.OnDomainDone(slots[i].stats)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Jobs:   []domain.JobPosting{},
		Stats:  make([]domain.CrawlStats, 0, len(slots)),
		Errors: []DomainError{},
	}
	for _, s := range slots {
		res.Jobs = append(res.Jobs, s.jobs...)
		res.Stats = append(res.Stats, s.stats)
		if s.err != nil {
			res.Errors = append(res.Errors, *s.err)
		}
	}

	sort.SliceStable(res.Jobs, func(i, j int) bool {
		a, b := res.Jobs[i], res.Jobs[j]
		if a.CompanyDomain != b.CompanyDomain {
			return a.CompanyDomain < b.CompanyDomain
		}
		if a.JobURL != b.JobURL {
			return a.JobURL < b.JobURL
		}
		return a.JobTitle < b.JobTitle
	})
	sort.SliceStable(res.Stats, func(i, j int) bool { return res.Stats[i].Domain < res.Stats[j].Domain })
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Domain < res.Errors[j].Domain })

	log.Info("crawl finished",
		zap.Int("domains", len(targets)),
		zap.Int("jobs", len(res.Jobs)),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("took", time.Since(start)))
	return res
}

func crawlSlot(ctx context.Context, env *Env, t Target, opts Options, log *zap.Logger) (s slot) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v", r)
			log.Error("domain crawl panicked",
				zap.String("domain", t.Domain),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()))
			s = slot{
				jobs:  nil,
				stats: domain.CrawlStats{Domain: t.Domain, Error: msg},
				err:   &DomainError{Domain: t.Domain, BusinessID: t.Company.BusinessID, Error: msg},
			}
		}
	}()

	jobs, stats := CrawlDomain(ctx, env, t.Company, t.Domain, opts)
	s = slot{jobs: jobs, stats: stats}
	if stats.Error != "" {
		s.err = &DomainError{Domain: t.Domain, BusinessID: t.Company.BusinessID, Error: stats.Error}
	}
	return s
}
