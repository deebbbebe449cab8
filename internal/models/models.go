package models

import (
	"strings"
	"time"
)

// Tweet represents a single post scraped from X
type Tweet struct {
	ID           string     `json:"tweet_id"`
	Username     string     `json:"username"`
	Content      string     `json:"content"`
	QuoteContent string     `json:"quote_content,omitempty"`
	Images       []string   `json:"images,omitempty"`
	Videos       []string   `json:"videos,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	URL          string     `json:"tweet_url"`
	IsRetweet    bool       `json:"is_retweet"`
	IsQuote      bool       `json:"is_quote"`
	Likes        int        `json:"likes_count"`
	Retweets     int        `json:"retweets_count"`
	Replies      int        `json:"replies_count"`
	Views        int        `json:"views_count"`
}

// EngagementRate returns (likes+reposts+replies)/views, or 0 when there are no views.
func (t Tweet) EngagementRate() float64 {
	if t.Views <= 0 {
		return 0
	}
	return float64(t.Likes+t.Retweets+t.Replies) / float64(t.Views)
}

// HasMedia reports whether the post carries images or videos.
func (t Tweet) HasMedia() bool {
	return len(t.Images) > 0 || len(t.Videos) > 0
}

// FullURL returns an absolute x.com URL for the post.
func (t Tweet) FullURL() string {
	if strings.HasPrefix(t.URL, "http") {
		return t.URL
	}
	return "https://x.com" + t.URL
}

// Profile is a user's recent post history
type Profile struct {
	Username string  `json:"username"`
	Tweets   []Tweet `json:"tweets"`
	JobID    string  `json:"job_id,omitempty"`
}

func (p Profile) average(metric func(Tweet) int) float64 {
	if len(p.Tweets) == 0 {
		return 0
	}
	total := 0
	for _, t := range p.Tweets {
		total += metric(t)
	}
	return float64(total) / float64(len(p.Tweets))
}

func (p Profile) ratio(match func(Tweet) bool) float64 {
	if len(p.Tweets) == 0 {
		return 0
	}
	n := 0
	for _, t := range p.Tweets {
		if match(t) {
			n++
		}
	}
	return float64(n) / float64(len(p.Tweets))
}

func (p Profile) AvgLikes() float64    { return p.average(func(t Tweet) int { return t.Likes }) }
func (p Profile) AvgRetweets() float64 { return p.average(func(t Tweet) int { return t.Retweets }) }
func (p Profile) AvgReplies() float64  { return p.average(func(t Tweet) int { return t.Replies }) }
func (p Profile) AvgViews() float64    { return p.average(func(t Tweet) int { return t.Views }) }

func (p Profile) RetweetRatio() float64 { return p.ratio(func(t Tweet) bool { return t.IsRetweet }) }
func (p Profile) QuoteRatio() float64   { return p.ratio(func(t Tweet) bool { return t.IsQuote }) }
func (p Profile) MediaRatio() float64   { return p.ratio(Tweet.HasMedia) }

// Tip is one actionable suggestion for a draft
type Tip struct {
	ID          string `json:"tip_id"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	TargetScore string `json:"target_score"`
	Selectable  bool   `json:"selectable"`
}

// UsageReport summarizes analysis traffic over a period
type UsageReport struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	Period         string         `json:"period"`
	TotalAnalyses  int            `json:"total_analyses"`
	ByType         map[string]int `json:"by_type"`
	TopHandles     []string       `json:"top_handles"`
	UniqueHandles  int            `json:"unique_handles"`
	ContextLookups int            `json:"context_lookups"`
}
