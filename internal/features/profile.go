package features

import (
	"math"

	"github.com/xeo-app/xeo-backend/internal/models"
)

// ProfileFeatures is the aggregate behaviour of a user's recent posts.
type ProfileFeatures struct {
	Username   string `json:"username"`
	TweetCount int    `json:"tweet_count"`

	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgLikes          float64 `json:"avg_likes"`
	AvgRetweets       float64 `json:"avg_retweets"`
	AvgReplies        float64 `json:"avg_replies"`
	AvgViews          float64 `json:"avg_views"`

	RetweetRatio float64 `json:"retweet_ratio"`
	QuoteRatio   float64 `json:"quote_ratio"`
	MediaRatio   float64 `json:"media_ratio"`

	// 1/(1+stddev) of per-post engagement rate; near 1 is stable.
	EngagementConsistency float64 `json:"engagement_consistency"`
}

// ExtractProfile aggregates a post history. An empty history yields a zero
// record, including a zero consistency.
func ExtractProfile(p models.Profile) ProfileFeatures {
	if len(p.Tweets) == 0 {
		return ProfileFeatures{Username: p.Username}
	}

	rates := make([]float64, len(p.Tweets))
	sum := 0.0
	for i, t := range p.Tweets {
		rates[i] = t.EngagementRate()
		sum += rates[i]
	}
	mean := sum / float64(len(rates))

	consistency := 1.0
	if len(rates) > 1 {
		variance := 0.0
		for _, r := range rates {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(rates))
		consistency = 1 / (1 + math.Sqrt(variance))
	}

	return ProfileFeatures{
		Username:              p.Username,
		TweetCount:            len(p.Tweets),
		AvgEngagementRate:     mean,
		AvgLikes:              p.AvgLikes(),
		AvgRetweets:           p.AvgRetweets(),
		AvgReplies:            p.AvgReplies(),
		AvgViews:              p.AvgViews(),
		RetweetRatio:          p.RetweetRatio(),
		QuoteRatio:            p.QuoteRatio(),
		MediaRatio:            p.MediaRatio(),
		EngagementConsistency: consistency,
	}
}

// DefaultProfile is substituted when the profile provider cannot be reached.
// The values describe a modest, steady account.
func DefaultProfile(username string) ProfileFeatures {
	return ProfileFeatures{
		Username:              username,
		TweetCount:            0,
		AvgEngagementRate:     0.02,
		AvgLikes:              100,
		AvgRetweets:           10,
		AvgReplies:            5,
		AvgViews:              1000,
		RetweetRatio:          0.2,
		QuoteRatio:            0.1,
		MediaRatio:            0.5,
		EngagementConsistency: 0.7,
	}
}
