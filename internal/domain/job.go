package domain

import "strings"

// Posting sources.
const (
	SourceJSONLD      = "jsonld"
	SourceGenericHTML = "generic_html"
	SourceLever       = "lever"
	SourceGreenhouse  = "greenhouse"
	SourceRecruitee   = "recruitee"
	SourceTeamtailor  = "teamtailor"

	SourceSmartRecruiters = "smartrecruiters"
)

// JobPosting is one discovered opening. Optional fields are nil when the
// source did not provide them.
type JobPosting struct {
	CompanyBusinessID  string   `json:"company_business_id"`
	CompanyName        string   `json:"company_name"`
	CompanyDomain      string   `json:"company_domain"`
	JobTitle           string   `json:"job_title"`
	JobURL             string   `json:"job_url"`
	LocationText       *string  `json:"location_text"`
	EmploymentType     *string  `json:"employment_type"`
	PostedDate         *string  `json:"posted_date"`
	DescriptionSnippet *string  `json:"description_snippet"`
	Source             string   `json:"source"`
	Tags               []string `json:"tags"`
	CrawlTS            string   `json:"crawl_ts"`
}

// PostingColumns is the stable column order of the postings table.
var PostingColumns = []string{
	"company_business_id",
	"company_name",
	"company_domain",
	"job_title",
	"job_url",
	"location_text",
	"employment_type",
	"posted_date",
	"description_snippet",
	"source",
	"tags",
	"crawl_ts",
}

// Row renders the posting in PostingColumns order. Tags are joined with ", ".
func (j JobPosting) Row() []string {
	return []string{
		j.CompanyBusinessID,
		j.CompanyName,
		j.CompanyDomain,
		j.JobTitle,
		j.JobURL,
		Deref(j.LocationText),
		Deref(j.EmploymentType),
		Deref(j.PostedDate),
		Deref(j.DescriptionSnippet),
		j.Source,
		strings.Join(j.Tags, ", "),
		j.CrawlTS,
	}
}

// Opt returns nil for a blank string, otherwise a pointer to it.
func Opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

