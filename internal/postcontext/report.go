package postcontext

import (
	"fmt"
	"time"

	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/models"
)

// ViralityStatus classifies a target by its engagement rate.
type ViralityStatus string

const (
	Trending  ViralityStatus = "trending"
	Growing   ViralityStatus = "growing"
	Stable    ViralityStatus = "stable"
	Declining ViralityStatus = "declining"
)

// ReplySaturation classifies how crowded a target's reply thread is.
type ReplySaturation string

const (
	SaturationLow      ReplySaturation = "low"
	SaturationMedium   ReplySaturation = "medium"
	SaturationHigh     ReplySaturation = "high"
	SaturationVeryHigh ReplySaturation = "very_high"
)

// Report is the presentation view of a target post, served by the context
// lookup endpoint.
type Report struct {
	PostID    string     `json:"post_id"`
	PostURL   string     `json:"post_url"`
	Author    Author     `json:"author"`
	Content   Content    `json:"content"`
	Metrics   Metrics    `json:"metrics"`
	CreatedAt *time.Time `json:"created_at"`

	Analysis    Analysis    `json:"analysis"`
	Opportunity Opportunity `json:"opportunity_score"`
	Tips        []string    `json:"tips"`
}

type Author struct {
	Username       string  `json:"username"`
	DisplayName    *string `json:"display_name"`
	FollowersCount int     `json:"followers_count"`
	Verified       bool    `json:"verified"`
}

type Media struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Content struct {
	Text     string   `json:"text"`
	Media    []Media  `json:"media"`
	Hashtags []string `json:"hashtags"`
}

type Metrics struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
	Quotes  int `json:"quotes"`
	Views   int `json:"views"`
}

type Analysis struct {
	AgeMinutes      int             `json:"age_minutes"`
	Freshness       Freshness       `json:"freshness"`
	ViralityStatus  ViralityStatus  `json:"virality_status"`
	ReplySaturation ReplySaturation `json:"reply_saturation"`
}

// Opportunity scores how worthwhile replying to the target is, 0-100.
type Opportunity struct {
	Overall int                `json:"overall"`
	Factors OpportunityFactors `json:"factors"`
}

type OpportunityFactors struct {
	AccountReach    int `json:"account_reach"`
	Timing          int `json:"timing"`
	Competition     int `json:"competition"`
	TopicEngagement int `json:"topic_engagement"`
}

// ViralityOf buckets an engagement rate.
func ViralityOf(rate float64) ViralityStatus {
	switch {
	case rate > 0.05:
		return Trending
	case rate > 0.02:
		return Growing
	case rate > 0.01:
		return Stable
	default:
		return Declining
	}
}

// SaturationOf buckets a reply count.
func SaturationOf(replies int) ReplySaturation {
	switch {
	case replies < 100:
		return SaturationLow
	case replies < 500:
		return SaturationMedium
	case replies < 2000:
		return SaturationHigh
	default:
		return SaturationVeryHigh
	}
}

// BuildReport assembles the context report for target as of now. A target
// without a timestamp is reported with age 0.
func BuildReport(target models.Tweet, now time.Time, lang string) *Report {
	ageMinutes := 0
	freshness := VeryFresh
	if target.PostedAt != nil {
		age := now.Sub(*target.PostedAt)
		ageMinutes = max(0, int(age.Minutes()))
		freshness = FreshnessOf(age)
	}

	rate := target.EngagementRate()
	virality := ViralityOf(rate)
	saturation := SaturationOf(target.Replies)

	factors := OpportunityFactors{
		AccountReach:    min(100, target.Views/100_000),
		Timing:          timingScore(freshness),
		Competition:     100 - min(80, target.Replies/50),
		TopicEngagement: min(100, int(rate*2000)),
	}

	media := make([]Media, 0, len(target.Images)+len(target.Videos))
	for _, img := range target.Images {
		media = append(media, Media{Type: features.MediaImage, URL: img})
	}
	for _, v := range target.Videos {
		media = append(media, Media{Type: features.MediaVideo, URL: v})
	}

	return &Report{
		PostID:  target.ID,
		PostURL: target.FullURL(),
		Author:  Author{Username: target.Username},
		Content: Content{
			Text:     target.Content,
			Media:    media,
			Hashtags: features.Hashtags(target.Content),
		},
		Metrics: Metrics{
			Likes:   target.Likes,
			Reposts: target.Retweets,
			Replies: target.Replies,
			Views:   target.Views,
		},
		CreatedAt: target.PostedAt,
		Analysis: Analysis{
			AgeMinutes:      ageMinutes,
			Freshness:       freshness,
			ViralityStatus:  virality,
			ReplySaturation: saturation,
		},
		Opportunity: Opportunity{
			Overall: (factors.AccountReach + factors.Timing + factors.Competition + factors.TopicEngagement) / 4,
			Factors: factors,
		},
		Tips: reportTips(target, ageMinutes, freshness, virality, saturation, lang),
	}
}

func timingScore(f Freshness) int {
	switch f {
	case VeryFresh:
		return 100
	case Fresh:
		return 80
	default:
		return 50
	}
}

func reportTips(target models.Tweet, ageMinutes int, f Freshness, v ViralityStatus, s ReplySaturation, lang string) []string {
	msg := messagesFor(lang)
	tips := []string{}
	if f == VeryFresh || f == Fresh {
		tips = append(tips, fmt.Sprintf(msg.tipTiming, ageMinutes))
	}
	if v == Trending {
		tips = append(tips, msg.tipTrending)
	}
	if s == SaturationHigh || s == SaturationVeryHigh {
		tips = append(tips, fmt.Sprintf(msg.tipCrowded, formatCount(target.Replies)))
	}
	if target.Views > 1_000_000 {
		tips = append(tips, msg.tipBigReach)
	}
	return tips
}
