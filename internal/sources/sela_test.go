package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	mu       sync.Mutex
	requests []scrapeRequest
	handle   func(req scrapeRequest) (int, string)
}

func (f *fakeScraper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	status, body := f.handle(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (f *fakeScraper) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, fmt.Sprintf("%s:%d", r.ScrapeType, r.PostCount))
	}
	return out
}

func newTestClient(t *testing.T, f *fakeScraper) *SelaClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rpc/scrapeUrl", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		f.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return NewSelaClient(SelaOptions{
		BaseURL:       server.URL,
		APIKey:        "secret",
		PrincipalID:   "principal-1",
		ScrapeTimeout: 5 * time.Second,
	})
}

func tweetsJSON(author string, ids ...int) string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, fmt.Sprintf(`{"tweetId":%d,"username":%q,"content":"post %d","likesCount":"10","retweetsCount":2,"repliesCount":null,"viewsCount":1000,"image":"https://img/%d.png","postedAt":"2025-03-01T10:00:00.000Z","tweetUrl":"/%s/status/%d"}`, id, author, id, id, author, id))
	}
	return fmt.Sprintf(`{"data":{"result":[%s],"jobId":"job-1"}}`, strings.Join(items, ","))
}

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestSelaClient_FetchProfile(t *testing.T) {
	f := &fakeScraper{handle: func(req scrapeRequest) (int, string) {
		assert.Equal(t, scrapeTwitterProfile, req.ScrapeType)
		assert.Equal(t, "https://x.com/gopher", req.URL)
		assert.Equal(t, 20, req.PostCount)
		assert.Equal(t, "principal-1", req.PrincipalID)
		assert.Equal(t, 5000, req.TimeoutMs)
		return http.StatusOK, tweetsJSON("gopher", 1, 2)
	}}
	c := newTestClient(t, f)

	p, err := c.FetchProfile(context.Background(), "@gopher", 20)
	require.NoError(t, err)

	assert.Equal(t, "gopher", p.Username)
	assert.Equal(t, "job-1", p.JobID)
	require.Len(t, p.Tweets, 2)

	tw := p.Tweets[0]
	assert.Equal(t, "1", tw.ID)
	assert.Equal(t, 10, tw.Likes)
	assert.Equal(t, 0, tw.Replies)
	assert.Equal(t, []string{"https://img/1.png"}, tw.Images)
	require.NotNil(t, tw.PostedAt)
	assert.Equal(t, 2025, tw.PostedAt.Year())
	assert.Equal(t, "https://x.com/gopher/status/1", tw.FullURL())
}

func TestSelaClient_FetchProfile_UpstreamError(t *testing.T) {
	f := &fakeScraper{handle: func(scrapeRequest) (int, string) {
		return http.StatusBadGateway, `{"error":"scraper down"}`
	}}
	c := newTestClient(t, f)

	_, err := c.FetchProfile(context.Background(), "gopher", 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSelaClient_FetchPost_Direct(t *testing.T) {
	f := &fakeScraper{handle: func(req scrapeRequest) (int, string) {
		assert.Equal(t, scrapeTwitterPost, req.ScrapeType)
		return http.StatusOK, `{"data":{"result":{"post":{"tweetId":"99","username":"gopher","content":"hello","viewsCount":5},"reply":[]}}}`
	}}
	c := newTestClient(t, f)

	tw, err := c.FetchPost(context.Background(), "https://x.com/gopher/status/99")
	require.NoError(t, err)
	assert.Equal(t, "99", tw.ID)
	assert.Equal(t, "hello", tw.Content)
	assert.Equal(t, []string{"TWITTER_POST:0"}, f.types())
}

func TestSelaClient_FetchPost_ScansWindows(t *testing.T) {
	f := &fakeScraper{handle: func(req scrapeRequest) (int, string) {
		switch {
		case req.ScrapeType == scrapeTwitterPost:
			return http.StatusOK, `{"data":{"result":{"post":null,"reply":[]}}}`
		case req.PostCount == 50:
			return http.StatusOK, tweetsJSON("gopher", seq(1000, 50)...)
		default:
			return http.StatusOK, tweetsJSON("gopher", seq(1000, 100)...)
		}
	}}
	c := newTestClient(t, f)

	tw, err := c.FetchPost(context.Background(), "https://twitter.com/gopher/status/1075")
	require.NoError(t, err)
	assert.Equal(t, "1075", tw.ID)
	assert.Equal(t, []string{"TWITTER_POST:0", "TWITTER_PROFILE:50", "TWITTER_PROFILE:100"}, f.types())
}

func TestSelaClient_FetchPost_StopsWhenHistoryExhausted(t *testing.T) {
	f := &fakeScraper{handle: func(req scrapeRequest) (int, string) {
		if req.ScrapeType == scrapeTwitterPost {
			return http.StatusInternalServerError, `{}`
		}
		return http.StatusOK, tweetsJSON("gopher", 1, 2, 3)
	}}
	c := newTestClient(t, f)

	_, err := c.FetchPost(context.Background(), "https://x.com/gopher/status/42")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Equal(t, []string{"TWITTER_POST:0", "TWITTER_PROFILE:50"}, f.types())
}

func TestSelaClient_FetchPost_OutsideWindow(t *testing.T) {
	f := &fakeScraper{handle: func(req scrapeRequest) (int, string) {
		if req.ScrapeType == scrapeTwitterPost {
			return http.StatusOK, `{"data":{"result":{}}}`
		}
		return http.StatusOK, tweetsJSON("gopher", seq(1, req.PostCount)...)
	}}
	c := newTestClient(t, f)

	_, err := c.FetchPost(context.Background(), "https://x.com/gopher/status/9999")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Len(t, f.types(), 4)
}

func TestSelaClient_FetchPost_InvalidURL(t *testing.T) {
	c := newTestClient(t, &fakeScraper{handle: func(scrapeRequest) (int, string) {
		t.Error("no request expected")
		return 0, ""
	}})

	_, err := c.FetchPost(context.Background(), "https://example.com/a/status/1")
	assert.True(t, errors.Is(err, ErrInvalidPostURL))
}

func TestSelaClient_IsEnabled(t *testing.T) {
	assert.False(t, NewSelaClient(SelaOptions{}).IsEnabled())
	assert.False(t, NewSelaClient(SelaOptions{BaseURL: "http://x"}).IsEnabled())
	assert.True(t, NewSelaClient(SelaOptions{BaseURL: "http://x", APIKey: "k"}).IsEnabled())
	assert.Equal(t, "sela", NewSelaClient(SelaOptions{}).GetName())
}

func TestParsePostURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		author string
		id     string
		ok     bool
	}{
		{"x.com", "https://x.com/golang/status/123", "golang", "123", true},
		{"twitter with query", "https://twitter.com/golang/status/456?s=20", "golang", "456", true},
		{"mobile trailing slash", "https://mobile.twitter.com/golang/status/789/", "golang", "789", true},
		{"photo suffix", "https://x.com/golang/status/123/photo/1", "golang", "123", true},
		{"no scheme", "x.com/golang/status/5", "golang", "5", true},
		{"profile only", "https://x.com/golang", "", "", false},
		{"non numeric id", "https://x.com/golang/status/abc", "", "", false},
		{"other host", "https://example.com/golang/status/1", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			author, id, err := ParsePostURL(tt.url)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPostURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.author, author)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestFlexibleDecoding(t *testing.T) {
	var tw selaTweet
	err := json.Unmarshal([]byte(`{"tweetId":"7","image":["a","b"],"video":null,"viewsCount":"1.5e3","likesCount":""}`), &tw)
	require.NoError(t, err)

	m := tw.toModel()
	assert.Equal(t, "7", m.ID)
	assert.Equal(t, []string{"a", "b"}, m.Images)
	assert.Nil(t, m.Videos)
	assert.Equal(t, 1500, m.Views)
	assert.Equal(t, 0, m.Likes)
	assert.Nil(t, m.PostedAt)
}
