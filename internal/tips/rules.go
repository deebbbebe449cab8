// Package tips turns content features and scores into a short, ordered list
// of actionable suggestions.
package tips

import (
	"fmt"

	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/scoring"
)

// MaxTips caps the list returned to callers.
const MaxTips = 5

// Length thresholds for the expand/shorten rules, in characters.
const (
	ShortContentChars = 50
	LongContentChars  = 250
	MaxHashtags       = 3
)

// Tip identifiers.
const (
	AddEmoji       = "add_emoji"
	AddQuestion    = "add_question"
	AddMediaHint   = "add_media_hint"
	ExpandContent  = "expand_content"
	ShortenContent = "shorten_content"
	AddHashtag     = "add_hashtag"
	ReduceHashtags = "reduce_hashtags"
	AddCTA         = "add_cta"
)

// Effect is a rule's target dimension and estimated lift in percent.
type Effect struct {
	Dimension  scoring.Dimension
	Percent    int
	Selectable bool
}

// Impact formats the lift as "+N%".
func (e Effect) Impact() string {
	return fmt.Sprintf("%+d%%", e.Percent)
}

// rule fires when its precondition is not already satisfied by the content.
type rule struct {
	id    string
	Effect
	fires func(f features.ContentFeatures) bool
}

// rules in priority order.
var rules = []rule{
	{AddEmoji, Effect{scoring.Engagement, 8, true}, func(f features.ContentFeatures) bool { return !f.HasEmoji }},
	{AddQuestion, Effect{scoring.Engagement, 15, true}, func(f features.ContentFeatures) bool { return !f.HasQuestion }},
	{AddMediaHint, Effect{scoring.Reach, 20, false}, func(f features.ContentFeatures) bool { return !f.HasMedia }},
	{ExpandContent, Effect{scoring.Longevity, 10, false}, func(f features.ContentFeatures) bool { return f.CharCount < ShortContentChars }},
	{ShortenContent, Effect{scoring.Quality, 5, false}, func(f features.ContentFeatures) bool { return f.CharCount > LongContentChars }},
	{AddHashtag, Effect{scoring.Reach, 5, true}, func(f features.ContentFeatures) bool { return f.HashtagCount == 0 }},
	{ReduceHashtags, Effect{scoring.Quality, 3, false}, func(f features.ContentFeatures) bool { return f.HashtagCount > MaxHashtags }},
	{AddCTA, Effect{scoring.Engagement, 10, true}, func(f features.ContentFeatures) bool { return !f.HasCTA }},
}

// EffectOf returns the effect of the rule with the given id.
func EffectOf(id string) (Effect, bool) {
	r, ok := ruleByID(id)
	return r.Effect, ok
}

func ruleByID(id string) (rule, bool) {
	for _, r := range rules {
		if r.id == id {
			return r, true
		}
	}
	return rule{}, false
}

// Rules evaluates the rule table against content and returns at most MaxTips
// tips in priority order, worded in lang.
func Rules(content features.ContentFeatures, lang string) []models.Tip {
	out := make([]models.Tip, 0, MaxTips)
	for _, r := range rules {
		if len(out) == MaxTips {
			break
		}
		if !r.fires(content) {
			continue
		}
		out = append(out, models.Tip{
			ID:          r.id,
			Description: Describe(r.id, lang),
			Impact:      r.Impact(),
			TargetScore: string(r.Dimension),
			Selectable:  r.Selectable,
		})
	}
	return out
}

// Fired returns the ids of the rules whose preconditions are unmet, uncapped.
func Fired(content features.ContentFeatures) []string {
	var ids []string
	for _, r := range rules {
		if r.fires(content) {
			ids = append(ids, r.id)
		}
	}
	return ids
}
