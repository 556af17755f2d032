// Package fetch performs polite GET requests: robots check, per-domain rate
// limit, one retry on 429, and body decoding to UTF-8.
package fetch

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/robots"
	"hiringscan-engine/internal/scrape/types"
	"hiringscan-engine/internal/scrape/util"
)

// Options controls request behaviour. Zero values take the defaults below.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	RetryBackoff time.Duration
	MaxBodyBytes int64
}

const (
	DefaultUserAgent    = "hiringscan/1.0 (+https://github.com/hiringscan)"
	DefaultTimeout      = 20 * time.Second
	DefaultRetryBackoff = 2 * time.Second
	DefaultMaxBodyBytes = 5 * 1024 * 1024

	maxRetries = 1
)

// Fetcher is shared by every worker of a run.
type Fetcher struct {
	client  *http.Client
	robots  *robots.Policy
	limiter *util.DomainLimiter
	opts    Options
	sink    Sink
	log     *zap.Logger
}

// New wires a Fetcher. robots, limiter and sink may be nil.
func New(client *http.Client, rp *robots.Policy, limiter *util.DomainLimiter, opts Options, sink Sink, log *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{client: client, robots: rp, limiter: limiter, opts: opts, sink: sink, log: log}
}

// UserAgent is the configured User-Agent header.
func (f *Fetcher) UserAgent() string { return f.opts.UserAgent }

// Fetch GETs raw. Exactly one of the results is non-zero: a page on success,
// otherwise the reason the URL yielded nothing.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (*types.Page, domain.Reason) {
	if f.robots != nil {
		if ok, rule := f.robots.CanFetchDetail(ctx, raw); !ok {
			f.log.Debug("blocked by robots", zap.String("url", raw), zap.String("rule", rule))
			return nil, domain.ReasonRobotsDisallowURL
		}
	}

	backoff := f.opts.RetryBackoff
	for attempt := 0; ; attempt++ {
		if err := f.limiter.Wait(ctx, raw); err != nil {
			return nil, classify(err)
		}

		page, status, err := f.do(ctx, raw)
		if err != nil {
			reason := classify(err)
			f.log.Debug("fetch failed", zap.String("url", raw), zap.String("reason", string(reason)), zap.Error(err))
			return nil, reason
		}
		if page != nil {
			if f.sink != nil {
				f.sink.Save(raw, page.Body)
			}
			return page, ""
		}

		if status == http.StatusTooManyRequests && attempt < maxRetries {
			f.log.Debug("rate limited, backing off",
				zap.String("url", raw), zap.Duration("backoff", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return nil, classify(err)
			}
			backoff *= 2
			continue
		}
		return nil, domain.HTTPStatus(status)
	}
}

// do returns a page for 2xx/3xx responses and only the status for >= 400.
func (f *Fetcher) do(ctx context.Context, raw string) (*types.Page, int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fi,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, resp.StatusCode, nil
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, resp.StatusCode, &bodyError{err: err}
	}

	ct := resp.Header.Get("Content-Type")
	body = toUTF8(body, ct)

	final := raw
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &types.Page{
		URL:         raw,
		FinalURL:    final,
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		Body:        body,
	}, resp.StatusCode, nil
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		rc, err := deflateReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("deflate decode: %w", err)
		}
		defer rc.Close()
		reader = rc
	}

	// oversized bodies are truncated, not rejected
	body, err := io.ReadAll(io.LimitReader(reader, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// deflateReader accepts the zlib-wrapped stream HTTP defines for "deflate"
// as well as the raw flate stream some servers send instead.
func deflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil {
		return io.NopCloser(br), nil
	}
	if isZlibHeader(head[0], head[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate method and a
// header checksum divisible by 31.
func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// toUTF8 converts body to UTF-8. A guessed (uncertain) encoding only covers
// the first KiB, so a body that is already valid UTF-8 is kept as is.
func toUTF8(body []byte, contentType string) []byte {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return body
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return bytes.ToValidUTF8(out, []byte("\uFFFD"))
}

// bodyError marks a failure after the response headers arrived: the host
// answered, so it is never reported as dns.
type bodyError struct{ err error }

func (e *bodyError) Error() string { return e.err.Error() }
func (e *bodyError) Unwrap() error { return e.err }

// classify maps a transport error onto a reason code.
func classify(err error) domain.Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ReasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ReasonTimeout
	}
	var be *bodyError
	if errors.As(err, &be) {
		return domain.ReasonBodyUnreadable
	}
	return domain.ReasonDNS
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
