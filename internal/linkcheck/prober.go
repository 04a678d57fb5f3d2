package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register every browser cookie store
	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"
)

// Prober reports the status of a resource URL.
type Prober interface {
	Probe(ctx context.Context, url string) (Status, error)
}

// maxBody caps how much of a page is read; the markers sit well inside it.
const maxBody = 2 << 20

// HTTPProber fetches pages over HTTP and classifies them by their markers.
type HTTPProber struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	delay      time.Duration
	userAgent  string
}

// Option configures an HTTPProber.
type Option func(*HTTPProber)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *HTTPProber) { p.httpClient = hc }
}

// WithRateLimit allows one page fetch per interval. Zero disables pacing.
func WithRateLimit(every time.Duration) Option {
	return func(p *HTTPProber) {
		if every <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
}

// WithRetry sets how many times a transient failure is attempted.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(p *HTTPProber) {
		p.attempts = max(attempts, 1)
		p.delay = delay
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(p *HTTPProber) { p.userAgent = ua }
}

// WithCookies seeds the client's cookie jar, e.g. with a logged-in browser session.
// Apply it after WithHTTPClient.
func WithCookies(cookies []*http.Cookie) Option {
	return func(p *HTTPProber) {
		byHost := make(map[string][]*http.Cookie)
		for _, c := range cookies {
			host := strings.TrimPrefix(c.Domain, ".")
			byHost[host] = append(byHost[host], c)
		}
		for host, cs := range byHost {
			if err := p.seedCookies("https://"+host+"/", cs); err != nil {
				slog.Warn("Failed to seed cookies", "host", host, "error", err)
			}
		}
	}
}

func (p *HTTPProber) seedCookies(rawURL string, cookies []*http.Cookie) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if p.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return err
		}
		p.httpClient.Jar = jar
	}
	p.httpClient.Jar.SetCookies(u, cookies)
	return nil
}

// NewHTTPProber creates a prober paced at one request per second.
func NewHTTPProber(opts ...Option) *HTTPProber {
	p := &HTTPProber{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		attempts:  3,
		delay:     2 * time.Second,
		userAgent: "Mozilla/5.0 (compatible; naxos-reconcile)",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BrowserCookies reads unexpired cookies for domain from the local browsers' stores.
func BrowserCookies(ctx context.Context, domain string) ([]*http.Cookie, error) {
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
	if err != nil && len(kookies) == 0 {
		return nil, fmt.Errorf("failed to read browser cookies for %s: %w", domain, err)
	}
	cookies := make([]*http.Cookie, 0, len(kookies))
	for _, c := range kookies {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	slog.Debug("Loaded browser cookies", "domain", domain, "count", len(cookies))
	return cookies, nil
}

// StatusError is a response that could not be classified after retries.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

type page struct {
	status int
	body   []byte
}

// Probe fetches the page and classifies it. Transport failures and
// 429/5xx responses are retried; if they persist the error is returned.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) (Status, error) {
	var lastErr error
	pg, err := retry.DoWithData(
		func() (page, error) {
			pg, err := p.fetch(ctx, rawURL)
			if err != nil {
				lastErr = err
			}
			return pg, err
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.MaxJitter(max(p.delay/2, time.Millisecond)),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && isTransient(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying URL check", "attempt", n+1, "url", rawURL, "error", err)
		}),
	)
	if err != nil {
		if lastErr != nil {
			err = lastErr
		}
		return Unknown, fmt.Errorf("failed to check %s: %w", rawURL, err)
	}
	return Classify(pg.status, pg.body), nil
}

func (p *HTTPProber) fetch(ctx context.Context, rawURL string) (page, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return page{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("failed to create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return page{}, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return page{}, fmt.Errorf("failed to read body: %w", err)
	}
	return page{status: resp.StatusCode, body: body}, nil
}

func isTransient(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
