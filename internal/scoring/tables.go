package scoring

// Dimension is one of the five pentagon axes.
type Dimension string

const (
	Reach      Dimension = "reach"
	Engagement Dimension = "engagement"
	Virality   Dimension = "virality"
	Quality    Dimension = "quality"
	Longevity  Dimension = "longevity"
)

// Dimensions in presentation order.
var Dimensions = []Dimension{Reach, Engagement, Virality, Quality, Longevity}

// ParseDimension reports whether name is a known dimension.
func ParseDimension(name string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == name {
			return d, true
		}
	}
	return "", false
}

// Feature keys for FeatureImpacts.
const (
	FeatureQuestion      = "has_question"
	FeatureCTA           = "has_cta"
	FeatureEmoji         = "has_emoji"
	FeatureMedia         = "has_media"
	FeatureVideo         = "has_video"
	FeatureOptimalLength = "optimal_length"
	FeatureHashtag       = "has_hashtag"
	FeatureQuote         = "is_quote"
)

// FeatureImpacts holds the additive probability deltas fired by each content
// feature. optimal_length deltas are multiplied by the length ratio and
// has_hashtag by min(hashtags, MaxHashtagBoosts).
var FeatureImpacts = map[string]map[Action]float64{
	FeatureQuestion:      {Reply: 0.15, Favorite: 0.05},
	FeatureCTA:           {Reply: 0.10, Click: 0.08},
	FeatureEmoji:         {Favorite: 0.05, Dwell: 0.03},
	FeatureMedia:         {Click: 0.20, Dwell: 0.15, Repost: 0.10},
	FeatureVideo:         {VideoView: 0.50, Dwell: 0.25},
	FeatureOptimalLength: {Dwell: 0.10, Favorite: 0.05},
	FeatureHashtag:       {Click: 0.03},
	FeatureQuote:         {Quote: -0.10, Repost: 0.05},
}

// MaxHashtagBoosts caps how many hashtags contribute a click increment.
const MaxHashtagBoosts = 3

// EngagementShares splits the seed engagement rate across positive actions.
var EngagementShares = map[Action]float64{
	Favorite: 0.60,
	Reply:    0.15,
	Repost:   0.15,
	Quote:    0.05,
	Share:    0.05,
}

// ProbabilityFloors bound the profile-seeded actions from below.
var ProbabilityFloors = map[Action]float64{
	Favorite: 0.02,
	Reply:    0.01,
	Repost:   0.01,
	Quote:    0.005,
	Share:    0.005,
}

// EngagementSeedFloor is the minimum engagement rate used to seed probabilities.
const EngagementSeedFloor = 0.03

// Baselines are the constant starting probabilities of actions that are not
// derived from the profile.
var Baselines = map[Action]float64{
	Click:         0.20,
	ProfileClick:  0.10,
	Dwell:         0.30,
	VideoView:     0,
	FollowAuthor:  0.005,
	NotInterested: 0.05,
	BlockAuthor:   0.001,
	MuteAuthor:    0.002,
	Report:        0.0001,
}

// DimensionWeights maps each dimension to signed per-action weights.
var DimensionWeights = map[Dimension]map[Action]float64{
	Reach: {
		Click:        0.4,
		ProfileClick: 0.3,
		Dwell:        0.3,
	},
	Engagement: {
		Favorite:      0.35,
		Reply:         0.35,
		Quote:         0.15,
		NotInterested: -0.15,
	},
	Virality: {
		Repost: 0.4,
		Quote:  0.3,
		Share:  0.3,
	},
	Quality: {
		Favorite:      0.25,
		Dwell:         0.25,
		NotInterested: -0.2,
		BlockAuthor:   -0.15,
		MuteAuthor:    -0.1,
		Report:        -0.3,
	},
	Longevity: {
		Dwell:        0.3,
		VideoView:    0.25,
		FollowAuthor: 0.25,
		Favorite:     0.2,
	},
}

// ScoreScale maps a weighted probability sum onto 0-100.
const ScoreScale = 200.0

// DimensionBaselines are added before clamping.
var DimensionBaselines = map[Dimension]float64{
	Quality: 50,
}

// DimensionFloors keep published scores off zero.
var DimensionFloors = map[Dimension]float64{
	Reach:      1,
	Engagement: 1,
	Virality:   1,
	Quality:    10,
	Longevity:  1,
}

// OverallWeights is a convex combination; the values sum to 1.
var OverallWeights = map[Dimension]float64{
	Reach:      0.25,
	Engagement: 0.25,
	Virality:   0.20,
	Quality:    0.15,
	Longevity:  0.15,
}
