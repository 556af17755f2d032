// Package robots evaluates robots.txt rules with a per-run, per-host cache.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"hiringscan-engine/internal/scrape/util"
)

const maxRobotsBodyBytes = 512 * 1024

// Policy answers whether a URL may be crawled. Rules for a host are fetched
// once, on first use, and kept for the lifetime of the Policy. A robots.txt
// that cannot be fetched or parsed allows everything.
type Policy struct {
	client    *http.Client
	userAgent string
	agent     string // product token used for group matching
	respect   bool
	limiter   *util.DomainLimiter
	log       *zap.Logger

	mu    sync.RWMutex
	cache map[string]*entry
	sf    singleflight.Group
}

type entry struct {
	data *robotstxt.RobotsData // nil: allow all
	raw  string
}

// New builds a Policy. respect=false turns every check into "allowed".
// limiter, when set, spaces the robots.txt request like any other request to
// the host.
func New(client *http.Client, userAgent string, respect bool, limiter *util.DomainLimiter, log *zap.Logger) *Policy {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		client:    client,
		userAgent: userAgent,
		agent:     productToken(userAgent),
		respect:   respect,
		limiter:   limiter,
		log:       log,
		cache:     make(map[string]*entry),
	}
}

// productToken turns "hiringscan/1.0 (+https://x)" into "hiringscan".
func productToken(ua string) string {
	ua = strings.TrimSpace(ua)
	if i := strings.IndexAny(ua, "/ "); i > 0 {
		ua = ua[:i]
	}
	if ua == "" {
		return "*"
	}
	return ua
}

// CanFetch reports whether raw may be fetched.
func (p *Policy) CanFetch(ctx context.Context, raw string) bool {
	ok, _ := p.CanFetchDetail(ctx, raw)
	return ok
}

// CanFetchDetail is CanFetch plus the longest Disallow rule that blocked the
// URL ("" when allowed or unknown).
func (p *Policy) CanFetchDetail(ctx context.Context, raw string) (bool, string) {
	if p == nil || !p.respect {
		return true, ""
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return true, ""
	}

	e := p.entryFor(ctx, u)
	if e.data == nil {
		return true, ""
	}
	group := e.data.FindGroup(p.agent)
	if group == nil {
		return true, ""
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if group.Test(path) {
		return true, ""
	}
	return false, longestDisallow(e.raw, p.agent, path)
}

// Allowed filters urls down to the ones that may be fetched, keeping order.
func (p *Policy) Allowed(ctx context.Context, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if p.CanFetch(ctx, u) {
			out = append(out, u)
		}
	}
	return out
}

func (p *Policy) entryFor(ctx context.Context, u *url.URL) *entry {
	host := strings.ToLower(u.Host)

	p.mu.RLock()
	e, ok := p.cache[host]
	p.mu.RUnlock()
	if ok {
		return e
	}

	v, _, _ := p.sf.Do(host, func() (interface{}, error) {
		p.mu.RLock()
		e, ok := p.cache[host]
		p.mu.RUnlock()
		if ok {
			return e, nil
		}

		e = p.fetch(ctx, u.Scheme, host)

		p.mu.Lock()
		if prev, ok := p.cache[host]; ok {
			e = prev
		} else {
			p.cache[host] = e
		}
		p.mu.Unlock()
		return e, nil
	})
	return v.(*entry)
}

func (p *Policy) fetch(ctx context.Context, scheme, host string) *entry {
	if scheme == "" {
		scheme = "https"
	}
	robotsURL := scheme + "://" + host + "/robots.txt"

	body, err := p.get(ctx, robotsURL)
	if err != nil {
		p.log.Debug("robots unavailable, allowing all",
			zap.String("url", robotsURL), zap.Error(err))
		return &entry{}
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		p.log.Debug("robots unparsable, allowing all",
			zap.String("url", robotsURL), zap.Error(err))
		return &entry{}
	}
	return &entry{data: data, raw: string(body)}
}

func (p *Policy) get(ctx context.Context, robotsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("robots: create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if err := p.limiter.Wait(ctx, robotsURL); err != nil {
		return nil, fmt.Errorf("robots: rate limit: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("robots: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("robots: read body: %w", err)
	}
	return body, nil
}
