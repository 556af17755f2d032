package domain

import "fmt"

// Reason is a typed code explaining why a URL or domain yielded nothing.
// The zero value means "no reason".
type Reason string

const (
	ReasonRobotsDisallowAll        Reason = "robots_disallow_all"
	ReasonRobotsDisallowURL        Reason = "robots_disallow_url"
	ReasonTimeout                  Reason = "timeout"
	ReasonDNS                      Reason = "dns"
	ReasonBodyUnreadable           Reason = "body_unreadable"
	ReasonTeamtailorNotImplemented Reason = "teamtailor_not_implemented"
	ReasonATSMissingSlug           Reason = "ats_missing_slug"
	ReasonHTTP403                  Reason = "http_403"
)

// HTTPStatus returns the http_<code> reason for a status code.
func HTTPStatus(code int) Reason {
	return Reason(fmt.Sprintf("http_%d", code))
}
