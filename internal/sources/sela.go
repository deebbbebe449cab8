package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/xeo-app/xeo-backend/internal/models"
)

// Post lookup scans the author's history in growing windows.
var postLookupWindows = []int{50, 100, 200}

// SelaOptions configures the scrape API client.
type SelaOptions struct {
	BaseURL       string
	APIKey        string
	PrincipalID   string
	RateLimit     float64 // requests per second, 0 for unlimited
	Burst         int
	ScrapeTimeout time.Duration
}

// SelaClient implements ProfileSource and PostSource on top of the scrape API
type SelaClient struct {
	opts    SelaOptions
	client  *resty.Client
	limiter *rate.Limiter
}

var (
	_ ProfileSource = (*SelaClient)(nil)
	_ PostSource    = (*SelaClient)(nil)
)

// NewSelaClient creates a new scrape API client
func NewSelaClient(opts SelaOptions) *SelaClient {
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = 60 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	// the HTTP timeout leaves headroom over the server-side scrape timeout
	httpTimeout := max(opts.ScrapeTimeout+30*time.Second, 90*time.Second)

	return &SelaClient{
		opts: opts,
		client: resty.New().
			SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
			SetTimeout(httpTimeout).
			SetHeader("Authorization", "Bearer "+opts.APIKey).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "XEO-Backend/1.0"),
		limiter: rate.NewLimiter(limit, opts.Burst),
	}
}

func (s *SelaClient) GetName() string {
	return "sela"
}

func (s *SelaClient) IsEnabled() bool {
	return s.opts.BaseURL != "" && s.opts.APIKey != ""
}

func (s *SelaClient) scrape(ctx context.Context, req scrapeRequest, out any) error {
	if !s.IsEnabled() {
		return fmt.Errorf("scrape API is not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req.TimeoutMs = int(s.opts.ScrapeTimeout.Milliseconds())
	req.PrincipalID = s.opts.PrincipalID

	logrus.Debugf("Scrape request %s for %s", req.ScrapeType, req.URL)
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/rpc/scrapeUrl")
	if err != nil {
		return fmt.Errorf("scrape request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		logrus.Errorf("Scrape API error for %s: status %d, body: %s", req.URL, resp.StatusCode(), string(resp.Body()))
		return fmt.Errorf("scrape API returned status %d", resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse scrape response: %w", err)
	}
	return nil
}

// FetchProfile returns up to count recent posts for handle
func (s *SelaClient) FetchProfile(ctx context.Context, handle string, count int) (*models.Profile, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")

	var body profileScrapeResponse
	err := s.scrape(ctx, scrapeRequest{
		URL:        "https://x.com/" + handle,
		ScrapeType: scrapeTwitterProfile,
		PostCount:  count,
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile %s: %w", handle, err)
	}

	profile := &models.Profile{
		Username: handle,
		Tweets:   make([]models.Tweet, 0, len(body.Data.Result)),
		JobID:    body.Data.JobID,
	}
	for _, t := range body.Data.Result {
		profile.Tweets = append(profile.Tweets, t.toModel())
	}
	if len(profile.Tweets) > 0 && profile.Tweets[0].Username != "" {
		profile.Username = profile.Tweets[0].Username
	}

	logrus.Infof("Fetched %d posts for @%s", len(profile.Tweets), handle)
	return profile, nil
}

// FetchPost resolves a post by URL. The direct post scrape is tried first;
// when it yields nothing the author's history is scanned. Posts older than
// the largest window report ErrPostNotFound.
func (s *SelaClient) FetchPost(ctx context.Context, postURL string) (*models.Tweet, error) {
	author, id, err := ParsePostURL(postURL)
	if err != nil {
		return nil, err
	}

	var direct postScrapeResponse
	err = s.scrape(ctx, scrapeRequest{
		URL:        postURL,
		ScrapeType: scrapeTwitterPost,
		ReplyCount: 10,
	}, &direct)
	if err != nil {
		logrus.Warnf("Direct post scrape failed for %s, scanning author history: %v", postURL, err)
	} else if p := direct.Data.Result.Post; p != nil && p.Content != "" {
		tweet := p.toModel()
		if tweet.ID == "" {
			tweet.ID = id
		}
		return &tweet, nil
	}

	for _, window := range postLookupWindows {
		profile, err := s.FetchProfile(ctx, author, window)
		if err != nil {
			return nil, err
		}

		for _, t := range profile.Tweets {
			if t.ID == id {
				found := t
				return &found, nil
			}
		}

		if len(profile.Tweets) < window {
			break
		}
	}

	logrus.Infof("Post %s not found in the last %d posts of @%s", id, postLookupWindows[len(postLookupWindows)-1], author)
	return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postURL)
}
