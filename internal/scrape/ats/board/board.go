// Package board holds the HTTP client and slug helpers shared by the ATS
// platform clients.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

const maxAPIBodyBytes = 10 * 1024 * 1024

// Client performs rate-limited JSON GETs against board APIs.
type Client struct {
	HC        *http.Client
	Limiter   *util.DomainLimiter
	UserAgent string
}

// GetJSON decodes the response of a GET into v. Statuses outside 2xx return a
// *types.ReasonError with an http_<code> reason.
func (c *Client) GetJSON(ctx context.Context, apiURL string, v any) error {
	hc := http.DefaultClient
	if c != nil && c.HC != nil {
		hc = c.HC
	}
	if c != nil && c.Limiter != nil {
		if err := c.Limiter.Wait(ctx, apiURL); err != nil {
			return types.NewReasonError(domain.ReasonTimeout, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c != nil && c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", apiURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64*1024))
		return types.NewReasonError(domain.HTTPStatus(res.StatusCode), nil)
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, maxAPIBodyBytes)).Decode(v); err != nil {
		return err
	}
	return nil
}

// SegmentAfter returns the "/"-separated segment following the first segment
// that satisfies match, without query or fragment.
func SegmentAfter(rawURL string, match func(seg string) bool) string {
	parts := strings.Split(rawURL, "/")
	for i, p := range parts {
		if match(p) && i+1 < len(parts) {
			return cleanSlug(parts[i+1])
		}
	}
	return ""
}

// Subdomain returns the first label of the host segment ending in suffix,
// e.g. "acme" for https://acme.recruitee.com/o/dev and ".recruitee.com".
func Subdomain(rawURL, suffix string) string {
	for _, p := range strings.Split(rawURL, "/") {
		host := p
		if i := strings.IndexAny(host, "?#:"); i >= 0 {
			host = host[:i]
		}
		if strings.HasSuffix(strings.ToLower(host), suffix) {
			label, _, _ := strings.Cut(host, ".")
			return cleanSlug(label)
		}
	}
	return ""
}

// ScanHTML returns the first capture group of re in html that is not in
// skip.
func ScanHTML(re *regexp.Regexp, html string, skip ...string) string {
	for _, m := range re.FindAllStringSubmatch(html, -1) {
		if len(m) < 2 {
			continue
		}
		slug := cleanSlug(m[1])
		if slug == "" || contains(skip, strings.ToLower(slug)) {
			continue
		}
		return slug
	}
	return ""
}

func cleanSlug(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
