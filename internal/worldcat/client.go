package worldcat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the WorldCat Metadata API host.
const DefaultBaseURL = "https://metadata.api.oclc.org"

// DefaultItemSubType limits searches to streaming audio.
const DefaultItemSubType = "music-digital"

// Searcher runs brief-bibs searches; *Client is the production implementation.
type Searcher interface {
	BriefBibsSearch(ctx context.Context, q Query) (CandidateSet, error)
}

// Client searches the WorldCat Metadata API
type Client struct {
	BaseURL     string
	ItemSubType string

	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30 second timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit allows one request per interval. Zero disables pacing.
func WithRateLimit(every time.Duration) Option {
	return func(c *Client) {
		if every <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
}

// WithRetry sets how many times a transient failure is attempted and the base delay between attempts.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// WithItemSubType restricts searches to one item subtype.
func WithItemSubType(subtype string) Option {
	return func(c *Client) { c.ItemSubType = subtype }
}

// NewClient creates a new WorldCat client
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		ItemSubType: DefaultItemSubType,
		tokens:      tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPError is a non-200 response from the API.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("WorldCat API returned status %d for %s: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("WorldCat API returned status %d for %s", e.StatusCode, e.URL)
}

// Query is one brief-bibs search.
type Query struct {
	Q string
}

// NewQuery searches by the vendor content id as a music publisher number and,
// when the resource URL contains hostMarker, by the URL remainder as an access method.
func NewQuery(contentID, resourceURL, hostMarker string) Query {
	q := fmt.Sprintf("mn='%s'", contentID)
	if hostMarker != "" {
		if _, after, found := strings.Cut(resourceURL, hostMarker); found && after != "" {
			q += fmt.Sprintf(" OR am='%s'", after)
		}
	}
	return Query{Q: q}
}

// BriefBibsSearch runs the query and decodes the response. Transient failures
// (network errors, 429, 5xx) are retried; a malformed body is not.
func (c *Client) BriefBibsSearch(ctx context.Context, q Query) (CandidateSet, error) {
	params := url.Values{}
	params.Set("q", q.Q)
	if c.ItemSubType != "" {
		params.Set("itemSubType", c.ItemSubType)
	}
	searchURL := c.BaseURL + "/worldcat/search/brief-bibs?" + params.Encode()

	var lastErr error
	body, err := retry.DoWithData(
		func() ([]byte, error) {
			b, err := c.get(ctx, searchURL)
			if err != nil {
				lastErr = err
			}
			return b, err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxJitter(max(c.delay/2, time.Millisecond)),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && isRetryable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying WorldCat search", "attempt", n+1, "query", q.Q, "error", err)
		}),
	)
	if err != nil {
		if lastErr != nil {
			err = lastErr
		}
		return CandidateSet{}, fmt.Errorf("failed to search WorldCat: %w", err)
	}
	return DecodeCandidateSet(body)
}

func (c *Client) get(ctx context.Context, searchURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, permanent{err}
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, permanent{fmt.Errorf("failed to get WorldCat token: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, permanent{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: searchURL, Body: strings.TrimSpace(string(body))}
	}
	return io.ReadAll(resp.Body)
}

// permanent marks a failure that retrying cannot fix.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

func isRetryable(err error) bool {
	var p permanent
	if errors.As(err, &p) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return true
}
