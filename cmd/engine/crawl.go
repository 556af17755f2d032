package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hiringscan-engine/internal/diff"
	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/ioformats"
	"hiringscan-engine/internal/scheduler"
	"hiringscan-engine/internal/scrape"
	"hiringscan-engine/internal/store"
)

type crawlFlags struct {
	companies string
	domainMap string
	outDir    string
	every     time.Duration
	noDiff    bool
	sitemap   bool

	maxDomains int
	maxWorkers int
	maxPages   int
	maxDetail  int
}

func newCrawlCmd(a *app) *cobra.Command {
	var fl crawlFlags
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the company list and write jobs, stats and diff tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := scrape.OptionsFromConfig(a.cfg.Crawl)
			f := cmd.Flags()
			if f.Changed("max-domains") {
				opts.MaxDomains = fl.maxDomains
			}
			if f.Changed("max-workers") {
				opts.MaxWorkers = fl.maxWorkers
			}
			if f.Changed("max-pages") {
				opts.MaxPagesPerDomain = fl.maxPages
			}
			if f.Changed("max-detail") {
				opts.MaxDetailPages = fl.maxDetail
			}
			if f.Changed("sitemap") {
				a.cfg.Crawl.UseSitemap = fl.sitemap
			}

			if fl.every <= 0 {
				return a.crawlOnce(cmd.Context(), fl, opts)
			}
			scheduler.Every(cmd.Context(), fl.every, "crawl", func(ctx context.Context) error {
				return a.crawlOnce(ctx, fl, opts)
			}, a.log)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.companies, "companies", "", "company list (.csv or .xlsx)")
	f.StringVar(&fl.domainMap, "domain-map", "", "business_id,domain overrides (.csv or .xlsx)")
	f.StringVar(&fl.outDir, "out", "out", "output directory")
	f.DurationVar(&fl.every, "every", 0, "repeat the crawl on this interval until interrupted")
	f.BoolVar(&fl.noDiff, "no-diff", false, "skip the known-jobs diff")
	f.BoolVar(&fl.sitemap, "sitemap", false, "also seed from sitemap.xml")
	f.IntVar(&fl.maxDomains, "max-domains", 0, "crawl at most this many domains (0 = all)")
	f.IntVar(&fl.maxWorkers, "max-workers", 0, "concurrent domain crawls")
	f.IntVar(&fl.maxPages, "max-pages", 0, "page budget per domain, root included")
	f.IntVar(&fl.maxDetail, "max-detail", 0, "detail pages followed by the generic extractor")
	_ = cmd.MarkFlagRequired("companies")
	return cmd
}

func (a *app) crawlOnce(ctx context.Context, fl crawlFlags, opts scrape.Options) error {
	runID := uuid.NewString()
	log := a.log.With(zap.String("run_id", runID))

	companies, err := ioformats.ReadCompanies(fl.companies)
	if err != nil {
		return err
	}
	domainMap, err := a.loadDomainMap(ctx, fl.domainMap)
	if err != nil {
		return err
	}

	env := scrape.NewEnv(a.cfg, nil, log)
	opts.OnDomainDone = func(s domain.CrawlStats) {
		log.Info("domain done",
			zap.String("domain", s.Domain),
			zap.Int("pages", s.PagesFetched),
			zap.Int("jobs", s.JobsFound),
			zap.String("reason", string(s.SkipReason)),
			zap.String("strategy", s.Strategy))
	}
	res := scrape.CrawlJobsPipeline(ctx, env, companies, domainMap, opts)

	if err := writeCrawlOutputs(fl.outDir, res); err != nil {
		return err
	}
	if fl.noDiff {
		log.Info("crawl written", zap.String("out", fl.outDir), zap.Int("jobs", len(res.Jobs)))
		return nil
	}
	return a.diffAndWrite(ctx, log, res.Jobs, fl.outDir, runID)
}

// loadDomainMap merges the domains remembered in the store with the file
// overrides and remembers the overrides for later runs.
func (a *app) loadDomainMap(ctx context.Context, path string) (map[string]string, error) {
	db, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	out, err := store.CompanyDomains(ctx, db.Pool)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return out, nil
	}

	overrides, err := ioformats.ReadDomainMap(path)
	if err != nil {
		return nil, err
	}
	for id, d := range overrides {
		if err := store.UpsertCompanyDomain(ctx, db.Pool, id, d); err != nil {
			return nil, err
		}
		out[id] = d
	}
	return out, nil
}

func writeCrawlOutputs(dir string, res scrape.Result) error {
	if err := ioformats.WriteJSONL(filepath.Join(dir, ioformats.JobsJSONL), res.Jobs); err != nil {
		return err
	}
	if err := ioformats.WriteJobsXLSX(filepath.Join(dir, ioformats.JobsXLSX), res.Jobs); err != nil {
		return err
	}
	if err := ioformats.WriteStatsXLSX(filepath.Join(dir, ioformats.StatsXLSX), res.Stats); err != nil {
		return err
	}
	return ioformats.WriteJSONL(filepath.Join(dir, ioformats.ErrorsJSONL), res.Errors)
}

func (a *app) diffAndWrite(ctx context.Context, log *zap.Logger, jobs []domain.JobPosting, outDir, runID string) error {
	annotated, newJobs, err := diff.ApplyDiff(ctx, jobs, a.cfg.Store.Path, runID, time.Now())
	if err != nil {
		return err
	}
	if err := ioformats.WriteDiffXLSX(filepath.Join(outDir, ioformats.DiffXLSX), annotated); err != nil {
		return err
	}
	log.Info("diff written",
		zap.String("out", outDir),
		zap.Int("jobs", len(jobs)),
		zap.Int("new", len(newJobs)))
	return nil
}
