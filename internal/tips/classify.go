package tips

import (
	"strings"

	"github.com/xeo-app/xeo-backend/internal/scoring"
)

// dimensionKeywords is scanned in order; the first dimension with a matching
// keyword wins.
var dimensionKeywords = []struct {
	dimension scoring.Dimension
	keywords  []string
}{
	{scoring.Virality, []string{"virality", "viral", "repost", "quote", "share"}},
	{scoring.Reach, []string{"reach", "hashtag", "discover", "visibility"}},
	{scoring.Quality, []string{"quality", "insight", "value", "depth"}},
	{scoring.Longevity, []string{"longevity", "dwell", "evergreen", "lasting"}},
}

// ClassifyDimension assigns free-form suggestion text to a dimension by
// keyword. Text with no keyword targets engagement.
func ClassifyDimension(text string) scoring.Dimension {
	lower := strings.ToLower(text)
	for _, group := range dimensionKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.dimension
			}
		}
	}
	return scoring.Engagement
}
