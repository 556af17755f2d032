package domain

import "strconv"

// CrawlStats summarises one domain attempt.
type CrawlStats struct {
	Domain       string `json:"domain"`
	PagesFetched int    `json:"pages_fetched"`
	JobsFound    int    `json:"jobs_found"`
	SkipReason   Reason `json:"skip_reason,omitempty"`
	Error        string `json:"error,omitempty"`
	ATS          string `json:"ats,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
}

// StatsColumns is the stable column order of the stats table.
var StatsColumns = []string{
	"domain",
	"pages_fetched",
	"jobs_found",
	"skip_reason",
	"error",
	"ats",
	"strategy",
}

func (s CrawlStats) Row() []string {
	return []string{
		s.Domain,
		strconv.Itoa(s.PagesFetched),
		strconv.Itoa(s.JobsFound),
		string(s.SkipReason),
		s.Error,
		s.ATS,
		s.Strategy,
	}
}
