package worldcat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is OCLC's OAuth token endpoint.
const DefaultTokenURL = "https://oauth.oclc.org/token"

// TokenSource supplies bearer tokens for Metadata API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-issued bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("empty WorldCat token")
	}
	return string(t), nil
}

// ClientCredentials obtains tokens with the OAuth client-credentials grant
// and reuses each one until shortly before it expires.
type ClientCredentials struct {
	Key      string
	Secret   string
	Scope    string
	TokenURL string

	httpClient *http.Client

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewClientCredentials creates a token source for the WorldCat Metadata API scope.
func NewClientCredentials(key, secret string) *ClientCredentials {
	return &ClientCredentials{
		Key:        key,
		Secret:     secret,
		Scope:      "WorldCatMetadataAPI",
		TokenURL:   DefaultTokenURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.source == nil {
		cfg := clientcredentials.Config{
			ClientID:     c.Key,
			ClientSecret: c.Secret,
			TokenURL:     c.TokenURL,
			Scopes:       []string{c.Scope},
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		// The source outlives this call, so it gets its own context carrying the HTTP client.
		c.source = cfg.TokenSource(context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient))
	}
	src := c.source
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("failed to request WorldCat token: %w", err)
	}
	return tok.AccessToken, nil
}
