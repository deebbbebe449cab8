// Package profile scores an account's recent history and suggests what to
// work on next.
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/metrics"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/scoring"
	"github.com/xeo-app/xeo-backend/internal/sources"
)

// ErrProfileUnavailable is returned when the history cannot be fetched.
var ErrProfileUnavailable = errors.New("profile unavailable")

// Insight priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

type Insight struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

type Recommendation struct {
	Action         string `json:"action"`
	ExpectedImpact string `json:"expected_impact"`
	Description    string `json:"description"`
}

// Analysis is the result of analysing one account.
type Analysis struct {
	Username        string                   `json:"username"`
	Scores          scoring.PentagonScores   `json:"scores"`
	Features        features.ProfileFeatures `json:"features"`
	Insights        []Insight                `json:"insights"`
	Recommendations []Recommendation         `json:"recommendations"`
}

// Analyzer fetches (through the profile cache) and analyses account history.
type Analyzer struct {
	source    sources.ProfileSource
	profiles  *cache.Typed[models.Profile]
	postCount int
}

// NewAnalyzer creates an Analyzer. profiles may be nil to always fetch.
func NewAnalyzer(source sources.ProfileSource, profiles *cache.Typed[models.Profile], postCount int) *Analyzer {
	if postCount <= 0 {
		postCount = 20
	}
	return &Analyzer{source: source, profiles: profiles, postCount: postCount}
}

// Fetch returns handle's recent history through the profile cache. An empty
// history is an error.
func (a *Analyzer) Fetch(ctx context.Context, handle string, bypass bool) (models.Profile, error) {
	handle = NormalizeHandle(handle)

	fetch := func(ctx context.Context) (models.Profile, error) {
		p, err := a.source.FetchProfile(ctx, handle, a.postCount)
		if err != nil {
			metrics.IncUpstreamFailure(a.source.GetName())
			return models.Profile{}, err
		}
		if len(p.Tweets) == 0 {
			return models.Profile{}, fmt.Errorf("no posts for @%s", handle)
		}
		return *p, nil
	}

	if a.profiles == nil {
		return fetch(ctx)
	}
	return a.profiles.GetOrFetch(ctx, strings.ToLower(handle), bypass, fetch)
}

// NormalizeHandle strips whitespace and a leading '@'.
func NormalizeHandle(handle string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// Analyze scores handle's recent posts. Unlike prediction there is no
// default profile here; a failed or empty fetch is ErrProfileUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, handle string, bypass bool) (*Analysis, error) {
	handle = NormalizeHandle(handle)

	p, err := a.Fetch(ctx, handle, bypass)
	if err != nil {
		logrus.Errorf("Profile analysis for @%s failed: %v", handle, err)
		return nil, fmt.Errorf("%w: @%s", ErrProfileUnavailable, handle)
	}

	f := features.ExtractProfile(p)
	scores := Scores(f)
	return &Analysis{
		Username:        handle,
		Scores:          scores.Rounded(),
		Features:        f,
		Insights:        Insights(f),
		Recommendations: Recommendations(f, scores),
	}, nil
}

// Scores maps historical performance onto the five dimensions.
func Scores(f features.ProfileFeatures) scoring.PentagonScores {
	return scoring.PentagonScores{
		Reach:      math.Min(100, f.AvgViews/10000*50+25),
		Engagement: math.Min(100, f.AvgEngagementRate*2000),
		Virality:   math.Min(100, f.AvgRetweets/100*30+f.RetweetRatio*30),
		Quality:    f.EngagementConsistency*50 + (1-f.RetweetRatio)*30 + 20,
		Longevity:  f.MediaRatio*30 + math.Min(40, f.AvgReplies/50*40) + 20,
	}
}

// Insights lists notable traits of the history.
func Insights(f features.ProfileFeatures) []Insight {
	out := []Insight{}

	switch {
	case f.AvgEngagementRate < 0.02:
		out = append(out, Insight{"engagement", "Your engagement rate is below average. Try creating more interactive content.", PriorityHigh})
	case f.AvgEngagementRate > 0.05:
		out = append(out, Insight{"engagement", "Your engagement rate is excellent! Keep up your current strategy.", PriorityLow})
	}
	if f.RetweetRatio > 0.5 {
		out = append(out, Insight{"content", "High retweet ratio detected. Consider creating more original content.", PriorityMedium})
	}
	if f.MediaRatio < 0.3 {
		out = append(out, Insight{"media", "Low media usage. Images and videos boost engagement significantly.", PriorityMedium})
	}
	if f.EngagementConsistency < 0.5 {
		out = append(out, Insight{"consistency", "High engagement volatility. Try to maintain consistent content quality.", PriorityMedium})
	}
	return out
}

var weakestFixes = map[scoring.Dimension]Recommendation{
	scoring.Reach:      {"increase_posting_frequency", "+20% reach", "Post more frequently to create more exposure opportunities."},
	scoring.Engagement: {"add_questions", "+15% engagement", "Add questions to your posts to encourage replies."},
	scoring.Virality:   {"create_shareable_content", "+25% virality", "Share valuable insights and information worth sharing."},
	scoring.Quality:    {"focus_on_original_content", "+20% quality", "Focus on original content rather than retweets."},
	scoring.Longevity:  {"add_media", "+30% longevity", "Add images or videos to increase dwell time."},
}

// Recommendations targets the weakest dimension, plus media usage when low.
func Recommendations(f features.ProfileFeatures, scores scoring.PentagonScores) []Recommendation {
	out := []Recommendation{weakestFixes[scores.Weakest()]}
	if f.MediaRatio < 0.4 {
		out = append(out, Recommendation{"increase_media_usage", "+15% overall", "Include media in at least 40% of your posts."})
	}
	return out
}
