// Package scoring turns feature records into action probabilities and
// pentagon scores using fixed heuristic tables.
package scoring

import (
	"math"

	"github.com/xeo-app/xeo-backend/internal/features"
)

// Boost scales named action probabilities by (1 + value) before clamping.
type Boost map[Action]float64

// PentagonScores are the five published dimensions, each in [0,100].
type PentagonScores struct {
	Reach      float64 `json:"reach"`
	Engagement float64 `json:"engagement"`
	Virality   float64 `json:"virality"`
	Quality    float64 `json:"quality"`
	Longevity  float64 `json:"longevity"`
}

// Get returns the score of a single dimension.
func (s PentagonScores) Get(d Dimension) float64 {
	switch d {
	case Reach:
		return s.Reach
	case Engagement:
		return s.Engagement
	case Virality:
		return s.Virality
	case Quality:
		return s.Quality
	case Longevity:
		return s.Longevity
	}
	return 0
}

func (s *PentagonScores) set(d Dimension, v float64) {
	switch d {
	case Reach:
		s.Reach = v
	case Engagement:
		s.Engagement = v
	case Virality:
		s.Virality = v
	case Quality:
		s.Quality = v
	case Longevity:
		s.Longevity = v
	}
}

// Overall is the weighted combination of the five dimensions.
func (s PentagonScores) Overall() float64 {
	total := 0.0
	for _, d := range Dimensions {
		total += s.Get(d) * OverallWeights[d]
	}
	return total
}

// Weakest returns the lowest-scoring dimension. Ties resolve to the
// earliest dimension in presentation order.
func (s PentagonScores) Weakest() Dimension {
	weakest := Dimensions[0]
	for _, d := range Dimensions[1:] {
		if s.Get(d) < s.Get(weakest) {
			weakest = d
		}
	}
	return weakest
}

// Rounded returns a copy with every dimension rounded to one decimal.
func (s PentagonScores) Rounded() PentagonScores {
	var out PentagonScores
	for _, d := range Dimensions {
		out.set(d, Round1(s.Get(d)))
	}
	return out
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Estimate derives the 14 action probabilities for a draft. boost may be nil.
func Estimate(content features.ContentFeatures, profile features.ProfileFeatures, boost Boost) ActionProbabilities {
	var p ActionProbabilities

	seed := math.Max(profile.AvgEngagementRate, EngagementSeedFloor)
	for action, share := range EngagementShares {
		p.Set(action, math.Max(seed*share, ProbabilityFloors[action]))
	}
	for action, base := range Baselines {
		p.Set(action, base)
	}

	apply := func(feature string, scale float64) {
		for action, delta := range FeatureImpacts[feature] {
			p.Add(action, delta*scale)
		}
	}

	if content.HasQuestion {
		apply(FeatureQuestion, 1)
	}
	if content.HasCTA {
		apply(FeatureCTA, 1)
	}
	if content.HasEmoji {
		apply(FeatureEmoji, 1)
	}
	if content.HasMedia {
		apply(FeatureMedia, 1)
		if content.MediaType == features.MediaVideo {
			apply(FeatureVideo, 1)
		}
	}
	apply(FeatureOptimalLength, content.OptimalLength())
	if content.HashtagCount > 0 {
		apply(FeatureHashtag, float64(min(content.HashtagCount, MaxHashtagBoosts)))
	}
	if content.IsQuote {
		apply(FeatureQuote, 1)
	}

	for action, b := range boost {
		p.Set(action, p.Get(action)*(1+b))
	}

	for _, a := range Actions {
		p.Set(a, clamp(p.Get(a), 0, 1))
	}
	return p
}

// Aggregate maps action probabilities onto the five dimensions.
func Aggregate(p ActionProbabilities) PentagonScores {
	var s PentagonScores
	for _, d := range Dimensions {
		// fixed summation order keeps results bit-identical across runs
		raw := 0.0
		for _, action := range Actions {
			raw += p.Get(action) * DimensionWeights[d][action]
		}
		v := raw*ScoreScale + DimensionBaselines[d]
		s.set(d, clamp(v, DimensionFloors[d], 100))
	}
	return s
}

// Analyze runs Estimate followed by Aggregate.
func Analyze(content features.ContentFeatures, profile features.ProfileFeatures, boost Boost) (PentagonScores, ActionProbabilities) {
	probs := Estimate(content, profile, boost)
	return Aggregate(probs), probs
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
