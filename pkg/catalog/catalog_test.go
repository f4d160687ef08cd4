package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releaseIndex = `[
  {"version": "v20.1.0", "date": "2023-05-03", "lts": false},
  {"version": "v18.1.0", "date": "2022-05-03", "lts": false},
  {"version": "v18.0.0", "date": "2022-04-19", "lts": false}
]`

const alternateIndex = `[
  {"version": "v18.1.0", "files": ["linux-x64-musl", "linux-x86"], "security": true},
  {"version": "v18.0.0", "files": ["linux-x64-musl"], "security": false}
]`

func newTestClient(srv *httptest.Server, retries int) *Client {
	return NewClient(Options{
		ReleaseIndexURL:   srv.URL + "/release/index.json",
		AlternateIndexURL: srv.URL + "/unofficial/index.json",
		UserAgent:         UserAgent("test"),
		MaxRetries:        retries,
		InitialInterval:   time.Millisecond,
	}, srv.Client())
}

// TestClientFetchesBothIndexes tests the behavior of Releases and Entries.
//
// It verifies:
//   - Records decode from the nodejs.org index.json shape
//   - Unknown fields are ignored
//   - The User-Agent header is sent
func TestClientFetchesBothIndexes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "releasewatch/test", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/release/index.json":
			_, _ = fmt.Fprint(w, releaseIndex)
		case "/unofficial/index.json":
			_, _ = fmt.Fprint(w, alternateIndex)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)

	releases, err := client.Releases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Release{{Version: "v20.1.0"}, {Version: "v18.1.0"}, {Version: "v18.0.0"}}, releases)

	entries, err := client.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Security)
	assert.True(t, entries[0].HasFile("linux-x64-musl"))
	assert.False(t, entries[0].HasFile("linux-arm64-musl"))
}

// TestClientRetriesTransientFailures tests retry behavior on 503 responses.
//
// It verifies:
//   - 5xx responses are retried until success
func TestClientRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, releaseIndex)
	}))
	defer srv.Close()

	releases, err := newTestClient(srv, 3).Releases(context.Background())
	require.NoError(t, err)
	assert.Len(t, releases, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestClientDoesNotRetryClientErrors tests that 4xx responses fail immediately.
func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).Releases(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestClientGivesUpAfterMaxRetries tests that retries are bounded.
func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 2).Entries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alternate-build index")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestClientRejectsMalformedJSON tests that decode failures are not retried.
func TestClientRejectsMalformedJSON(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = fmt.Fprint(w, `{"not": "an array"`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).Releases(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestClientEmptyURL tests that an unset index URL is reported.
func TestClientEmptyURL(t *testing.T) {
	_, err := NewClient(Options{}, nil).Releases(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index URL is empty")
}

// TestIsGitHubHost tests the behavior of isGitHubHost.
func TestIsGitHubHost(t *testing.T) {
	assert.True(t, isGitHubHost("https://api.github.com/repos/nodejs/node/releases"))
	assert.True(t, isGitHubHost("https://github.com/nodejs/node"))
	assert.False(t, isGitHubHost("https://nodejs.org/download/release/index.json"))
	assert.False(t, isGitHubHost("https://github.com.evil.example/index.json"))
	assert.False(t, isGitHubHost("::not a url"))
}

// TestFilterSkipped tests the behavior of FilterSkipped.
//
// It verifies:
//   - Empty constraint keeps every release
//   - Matching releases are dropped and order is preserved
//   - Unparseable records are kept for strict parsing downstream
//   - Invalid constraints return an error
func TestFilterSkipped(t *testing.T) {
	releases := []Release{{Version: "v20.11.0"}, {Version: "v20.10.0"}, {Version: "garbage"}, {Version: "v23.0.0"}}

	t.Run("empty constraint", func(t *testing.T) {
		kept, err := FilterSkipped(releases, "")
		require.NoError(t, err)
		assert.Equal(t, releases, kept)
	})

	t.Run("single release", func(t *testing.T) {
		kept, err := FilterSkipped(releases, "20.11.0")
		require.NoError(t, err)
		assert.Equal(t, []Release{{Version: "v20.10.0"}, {Version: "garbage"}, {Version: "v23.0.0"}}, kept)
	})

	t.Run("range", func(t *testing.T) {
		kept, err := FilterSkipped(releases, ">=23.0.0")
		require.NoError(t, err)
		assert.Equal(t, []Release{{Version: "v20.11.0"}, {Version: "v20.10.0"}, {Version: "garbage"}}, kept)
	})

	t.Run("invalid constraint", func(t *testing.T) {
		_, err := FilterSkipped(releases, ">>nope")
		require.Error(t, err)
	})
}
