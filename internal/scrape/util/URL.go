package util

import (
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalizeURL lower-cases scheme and host, drops the fragment and common
// tracking parameters, and sorts the query.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ResolveURL resolves href against base. It returns "" when either side does
// not parse.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}

// NormalizeDomain turns "https://www.Example.com/path" into "example.com".
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, ".")
}

// DomainKey maps a host (optionally with port) to the registered domain used
// for rate limiting, so jobs.example.com and www.example.com share a key.
// IP addresses and single-label hosts keep their port.
func DomainKey(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	if net.ParseIP(name) != nil || !strings.Contains(name, ".") {
		return host
	}
	name = strings.TrimPrefix(name, "www.")
	if reg, err := publicsuffix.EffectiveTLDPlusOne(name); err == nil {
		return reg
	}
	return name
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFilename derives a filesystem-safe name from a URL.
func SafeFilename(raw string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	s = unsafeFileChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 150 {
		s = s[:150]
	}
	if s == "" {
		s = "page"
	}
	return s
}
