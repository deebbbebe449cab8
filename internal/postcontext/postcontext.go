// Package postcontext derives probability adjustments and presentation
// reports from the post a reply or quote targets.
package postcontext

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/scoring"
)

// Freshness buckets a target's age.
type Freshness string

const (
	VeryFresh Freshness = "very_fresh"
	Fresh     Freshness = "fresh"
	Moderate  Freshness = "moderate"
	Old       Freshness = "old"
)

// Thresholds that decide which adjustments fire.
const (
	LargeAccountViews      = 100_000
	FreshnessWindow        = 60 * time.Minute
	ReplyCompetitionCutoff = 1_000

	veryFreshWindow = 15 * time.Minute
	moderateWindow  = 6 * time.Hour
)

// Adjustment reason keys.
const (
	ReasonLargeAccount     = "large_account_bonus"
	ReasonFreshness        = "freshness_bonus"
	ReasonReplyCompetition = "reply_competition"
)

// Boost values per reason. They add together on shared actions.
var (
	LargeAccountBoost     = scoring.Boost{scoring.Click: 0.25, scoring.ProfileClick: 0.20}
	FreshnessBoost        = scoring.Boost{scoring.Click: 0.15}
	ReplyCompetitionBoost = scoring.Boost{scoring.Click: -0.10}
)

// FreshnessOf buckets an age. Negative ages, from clock skew, count as very fresh.
func FreshnessOf(age time.Duration) Freshness {
	switch {
	case age < veryFreshWindow:
		return VeryFresh
	case age < FreshnessWindow:
		return Fresh
	case age < moderateWindow:
		return Moderate
	default:
		return Old
	}
}

// Adjustment is the effect of a resolved target on the draft's probabilities.
type Adjustment struct {
	Boost       scoring.Boost     `json:"-"`
	Adjustments map[string]string `json:"context_adjustments"`
	Reasons     []string          `json:"recommendations"`
	Target      models.Tweet      `json:"-"`
}

// Analyze evaluates the target against the large-account, freshness and
// reply-competition rules. lang selects the reason wording.
func Analyze(target models.Tweet, now time.Time, lang string) *Adjustment {
	adj := &Adjustment{
		Boost:       scoring.Boost{},
		Adjustments: map[string]string{},
		Reasons:     []string{},
		Target:      target,
	}
	msg := messagesFor(lang)

	if target.Views > LargeAccountViews {
		adj.add(ReasonLargeAccount, LargeAccountBoost)
		adj.Reasons = append(adj.Reasons, msg.largeAccount)
	}

	if target.PostedAt != nil {
		age := now.Sub(*target.PostedAt)
		if age < FreshnessWindow {
			adj.add(ReasonFreshness, FreshnessBoost)
			adj.Reasons = append(adj.Reasons, fmt.Sprintf(msg.freshness, max(0, int(age.Minutes()))))
		}
	}

	if target.Replies > ReplyCompetitionCutoff {
		adj.add(ReasonReplyCompetition, ReplyCompetitionBoost)
		adj.Reasons = append(adj.Reasons, fmt.Sprintf(msg.competition, formatCount(target.Replies)))
	}

	return adj
}

func (a *Adjustment) add(reason string, boost scoring.Boost) {
	for action, v := range boost {
		a.Boost[action] += v
	}
	a.Adjustments[reason] = formatPercent(boost[scoring.Click])
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%+d%%", int(math.Round(v*100)))
}

var countPrinter = message.NewPrinter(language.English)

// formatCount renders n with comma thousands separators.
func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}
