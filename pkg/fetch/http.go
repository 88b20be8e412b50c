package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"

	"github.com/kbaer/opendirindex/pkg/retry"
)

// userAgentLadder is the first-request fallback ladder: default -> curl
// -> Chrome. It fires only on the very first successful-parse attempt of
// the session; every later request reuses whichever agent won.
var userAgentLadder = []string{
	"opendirindex/1.0",
	"curl/8.6.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// userAgentSentinel is the marker body that also triggers a ladder
// fallback.
const userAgentSentinel = "HTTP_USER_AGENT"

// HTTPFetcher performs HTTP(S) directory fetches. One instance, and its
// single underlying http.Client, is shared by every worker in the pool.
type HTTPFetcher struct {
	Client   *http.Client
	Logger   zerolog.Logger
	Username string
	Password string

	mu            sync.Mutex
	uaResolved    bool
	resolvedUA    string
	referer       string
	robotsCache   map[string]*robotstxt.RobotsData
	respectRobots bool
}

// NewHTTPFetcher builds a fetcher with certificate verification disabled
// by default: open-directory servers in this domain frequently
// misconfigure certificates, and refusing to crawl them would defeat the
// purpose.
func NewHTTPFetcher(timeout time.Duration, userAgentOverride string, respectRobots bool, logger zerolog.Logger) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     30 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // misconfigured certs are common on these servers
		DisableCompression:  true,                                  // decompression is handled explicitly, see compression.go
	}
	f := &HTTPFetcher{
		Client:        &http.Client{Transport: transport, Timeout: timeout},
		Logger:        logger,
		robotsCache:   make(map[string]*robotstxt.RobotsData),
		respectRobots: respectRobots,
	}
	if userAgentOverride != "" {
		f.uaResolved = true
		f.resolvedUA = userAgentOverride
	}
	return f
}

// Fetch performs one GET against target, following redirects, applying
// the user-agent ladder on the first request of the session, and
// classifying failures for the retry policy to act on.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, retry.Classify(retry.KindTransport, 0, "", fmt.Errorf("parse url: %w", err))
	}

	if f.respectRobots && !f.allowedByRobots(ctx, u) {
		return nil, retry.Classify(retry.KindScopeViolation, 0, "", fmt.Errorf("disallowed by robots.txt: %s", target))
	}

	f.mu.Lock()
	resolved := f.uaResolved
	f.mu.Unlock()

	if resolved {
		result, err := f.doOnce(ctx, target, f.currentUA())
		return result, err
	}
	return f.fetchWithLadder(ctx, target)
}

func (f *HTTPFetcher) currentUA() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolvedUA
}

// fetchWithLadder runs the default -> curl -> Chrome fallback, pinning
// whichever agent first succeeds for the rest of the session.
func (f *HTTPFetcher) fetchWithLadder(ctx context.Context, target string) (*Result, error) {
	var lastErr error
	for i, ua := range userAgentLadder {
		result, err := f.doOnce(ctx, target, ua)
		triggersFallback := err != nil || (result != nil && (len(result.Body) == 0 || strings.Contains(string(result.Body), userAgentSentinel)))
		if !triggersFallback {
			f.pinUserAgent(ua, target)
			return result, nil
		}
		lastErr = err
		if i == len(userAgentLadder)-1 {
			if err != nil {
				return nil, err
			}
			f.pinUserAgent(ua, target)
			return result, nil
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) pinUserAgent(ua, refererURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.uaResolved {
		f.uaResolved = true
		f.resolvedUA = ua
		f.referer = refererURL
	}
}

func (f *HTTPFetcher) doOnce(ctx context.Context, target, userAgent string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Classify(retry.KindTransport, 0, LastPathSegment(target), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", AcceptEncoding)
	f.mu.Lock()
	referer := f.referer
	f.mu.Unlock()
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if f.Username != "" {
		req.SetBasicAuth(f.Username, f.Password)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, retry.Classify(retry.KindTransport, 0, LastPathSegment(target), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Classify(retry.KindTransport, 0, LastPathSegment(target), fmt.Errorf("read body: %w", err))
	}

	body, err = decodeBody(body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, retry.Classify(retry.KindTransport, 0, LastPathSegment(target), fmt.Errorf("decode body: %w", err))
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		resp.Header.Set("Content-Type", repairCharset(ct))
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{FinalURL: finalURL, StatusCode: resp.StatusCode, Headers: resp.Header, Body: body},
			retry.Classify(retry.KindStatus, resp.StatusCode, LastPathSegment(target), fmt.Errorf("unexpected status %d for %s", resp.StatusCode, target))
	}

	return &Result{FinalURL: finalURL, StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

func (f *HTTPFetcher) allowedByRobots(ctx context.Context, u *url.URL) bool {
	host := u.Scheme + "://" + u.Host
	f.mu.Lock()
	cached, ok := f.robotsCache[host]
	f.mu.Unlock()
	if ok {
		return cached == nil || cached.TestAgent(u.Path, "opendirindex")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return true
	}
	resp, err := f.Client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		f.storeRobots(host, nil)
		return true
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.storeRobots(host, nil)
		return true
	}
	f.storeRobots(host, robots)
	return robots.TestAgent(u.Path, "opendirindex")
}

func (f *HTTPFetcher) storeRobots(host string, data *robotstxt.RobotsData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.robotsCache[host] = data
}

// LastPathSegment returns a URL's trailing path segment, used by the
// retry policy's cgi-bin rule.
func LastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	seg := parts[len(parts)-1]
	if strings.HasSuffix(u.Path, "/") && seg != "" {
		seg += "/"
	}
	return seg
}
