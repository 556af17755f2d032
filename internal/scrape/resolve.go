package scrape

import (
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/util"
)

// Aggregators and directories are never a company's own site. Hosted ATS
// domains are absent on purpose: the detector handles them.
var domainBlocklist = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"careerbuilder.com",
	"simplyhired.com",
	"builtin.com",
	"levels.fyi",
	"crunchbase.com",
	"wikipedia.org",
	"facebook.com",
	"duunitori.fi",
	"finder.fi",
	"asiakastieto.fi",
}

// Target is one scheduled domain crawl.
type Target struct {
	Company domain.Company
	Domain  string
}

// ResolveTargets picks the domain for each company: domainMap[BusinessID]
// wins over Company.Domain. Companies without a usable domain are skipped,
// a domain shared by several companies is crawled once for the first of
// them, and at most maxDomains targets are returned (0 = all).
func ResolveTargets(companies []domain.Company, domainMap map[string]string, maxDomains int) []Target {
	targets := make([]Target, 0, len(companies))
	seen := make(map[string]bool, len(companies))
	for _, c := range companies {
		raw := c.Domain
		if d, ok := domainMap[strings.TrimSpace(c.BusinessID)]; ok && strings.TrimSpace(d) != "" {
			raw = d
		}
		host := util.NormalizeDomain(raw)
		if host == "" || isBlockedDomain(host) || seen[host] {
			continue
		}
		seen[host] = true
		c.Domain = host
		targets = append(targets, Target{Company: c, Domain: host})
		if maxDomains > 0 && len(targets) >= maxDomains {
			break
		}
	}
	return targets
}

func isBlockedDomain(host string) bool {
	for _, b := range domainBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
