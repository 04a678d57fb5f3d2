package worldcat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewQuery(t *testing.T) {
	tests := []struct {
		name string
		cid  string
		url  string
		want string
	}{
		{
			name: "with host marker",
			cid:  "8.550001",
			url:  "https://nypl.naxosmusiclibrary.com/catalogue/item.asp?cid=8.550001",
			want: "mn='8.550001' OR am='naxosmusiclibrary.com/catalogue/item.asp?cid=8.550001'",
		},
		{
			name: "without host marker",
			cid:  "8.550001",
			url:  "https://univportal.naxosmusiclibrary.com/catalogue/item.asp?cid=8.550001",
			want: "mn='8.550001'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewQuery(tt.cid, tt.url, "nypl.").Q; got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBriefBibsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/worldcat/search/brief-bibs" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("itemSubType"); got != "music-digital" {
			t.Errorf("Expected itemSubType music-digital, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "mn='A'" {
			t.Errorf("Expected q mn='A', got %q", got)
		}
		fmt.Fprint(w, `{"numberOfRecords": 1, "briefRecords": [{"oclcNumber": "42", "catalogingInfo": {"catalogingAgency": "NAXOS", "catalogingLanguage": "eng", "levelOfCataloging": "3"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("secret"), WithRateLimit(0))
	set, err := c.BriefBibsSearch(context.Background(), Query{Q: "mn='A'"})
	require.NoError(t, err)
	require.Equal(t, 1, set.RecordCount)
	require.Equal(t, "42", set.Candidates[0].Identifier)
}

func TestBriefBibsSearchRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"numberOfRecords": 0}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("t"), WithRateLimit(0), WithRetry(3, time.Millisecond))
	set, err := c.BriefBibsSearch(context.Background(), Query{Q: "mn='A'"})
	require.NoError(t, err)
	require.Equal(t, 0, set.RecordCount)
	require.Equal(t, int32(3), calls.Load())
}

func TestBriefBibsSearchPermanentError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("t"), WithRateLimit(0), WithRetry(3, time.Millisecond))
	_, err := c.BriefBibsSearch(context.Background(), Query{Q: "mn='A'"})

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *HTTPError, got %v", err)
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestBriefBibsSearchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"briefRecords": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("t"), WithRateLimit(0))
	_, err := c.BriefBibsSearch(context.Background(), Query{Q: "mn='A'"})

	var mre *MalformedResponseError
	require.True(t, errors.As(err, &mre), "expected *MalformedResponseError, got %v", err)
}

func TestClientCredentials(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn int
		wantCalls int32
	}{
		{name: "token is reused", expiresIn: 1199, wantCalls: 1},
		{name: "token near expiry is refreshed", expiresIn: 5, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				user, pass, ok := r.BasicAuth()
				if !ok || user != "key" || pass != "secret" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				if got := r.FormValue("grant_type"); got != "client_credentials" {
					t.Errorf("Expected client_credentials grant, got %q", got)
				}
				if got := r.FormValue("scope"); got != "WorldCatMetadataAPI" {
					t.Errorf("Expected WorldCatMetadataAPI scope, got %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"access_token": "tok%d", "token_type": "bearer", "expires_in": %d}`, n, tt.expiresIn)
			}))
			defer srv.Close()

			cc := NewClientCredentials("key", "secret")
			cc.TokenURL = srv.URL

			tok, err := cc.Token(context.Background())
			require.NoError(t, err)
			require.Equal(t, "tok1", tok)

			_, err = cc.Token(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClientCredentialsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cc := NewClientCredentials("key", "wrong")
	cc.TokenURL = srv.URL
	_, err := cc.Token(context.Background())
	require.Error(t, err)
}
