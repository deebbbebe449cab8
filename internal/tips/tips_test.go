package tips

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/scoring"
)

// MockLLM is a mock implementation of llm.Client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func ids(tips []models.Tip) []string {
	out := make([]string, 0, len(tips))
	for _, t := range tips {
		out = append(out, t.ID)
	}
	return out
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		media string
		want  []string
	}{
		{
			name: "Bare short text is capped at five",
			text: "hello",
			want: []string{AddEmoji, AddQuestion, AddMediaHint, ExpandContent, AddHashtag},
		},
		{
			name:  "Everything present",
			text:  "Shipping the new release today 🚀 what do you think? #golang",
			media: features.MediaImage,
			want:  []string{},
		},
		{
			name:  "Only the call to action missing",
			text:  "Shipping the new release today 🚀 anyone else upgrading this week? #golang",
			media: features.MediaImage,
			want:  []string{AddCTA},
		},
		{
			name:  "Too many hashtags",
			text:  "Shipping the new release today 🚀 are you upgrading? let me know #go #golang #dev #release",
			media: features.MediaVideo,
			want:  []string{ReduceHashtags},
		},
		{
			name:  "Long text",
			text:  strings.Repeat("words and more words ", 15) + "🚀 thoughts? reply below #go",
			media: features.MediaImage,
			want:  []string{ShortenContent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rules(features.ExtractContent(tt.text, tt.media, false), "ko")
			assert.Equal(t, tt.want, ids(got))
			assert.LessOrEqual(t, len(got), MaxTips)
		})
	}
}

func TestRules_Fields(t *testing.T) {
	got := Rules(features.ExtractContent("hi", "", false), "en")
	require.NotEmpty(t, got)

	first := got[0]
	assert.Equal(t, AddEmoji, first.ID)
	assert.Equal(t, "+8%", first.Impact)
	assert.Equal(t, string(scoring.Engagement), first.TargetScore)
	assert.True(t, first.Selectable)
	assert.Contains(t, first.Description, "emoji")

	media := got[2]
	assert.Equal(t, AddMediaHint, media.ID)
	assert.Equal(t, string(scoring.Reach), media.TargetScore)
	assert.False(t, media.Selectable)
}

func TestRules_LanguageFallback(t *testing.T) {
	ko := Rules(features.ExtractContent("hi", "", false), "ko")
	unknown := Rules(features.ExtractContent("hi", "", false), "fr")
	assert.Equal(t, ko, unknown)
	assert.Equal(t, "이모지를 추가하면 engagement +8% 예상", ko[0].Description)
}

func TestClassifyDimension(t *testing.T) {
	tests := []struct {
		text string
		want scoring.Dimension
	}{
		{"Make it more shareable so people repost it", scoring.Virality},
		{"This could go VIRAL", scoring.Virality},
		{"Add a hashtag for discoverability", scoring.Reach},
		{"Improve visibility in search", scoring.Reach},
		{"Add a concrete insight", scoring.Quality},
		{"Evergreen framing keeps it lasting", scoring.Longevity},
		{"Increase dwell time", scoring.Longevity},
		{"Ask your followers something", scoring.Engagement},
		{"", scoring.Engagement},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDimension(tt.text))
		})
	}
}

func TestSuggestionKey(t *testing.T) {
	s := scoring.PentagonScores{Reach: 40.2, Engagement: 12.7}
	long := strings.Repeat("가", 150)

	assert.Equal(t, SuggestionKey(long, s, "ko"), SuggestionKey(long+"tail", s, "ko"), "only the first 100 runes count")
	assert.NotEqual(t, SuggestionKey("a", s, "ko"), SuggestionKey("a", s, "en"))
	assert.NotEqual(t, SuggestionKey("a", s, "ko"), SuggestionKey("a", scoring.PentagonScores{Reach: 60}, "ko"))
	assert.Len(t, SuggestionKey("a", s, "ko"), 64)
}

func TestGenerator_NoClientUsesRules(t *testing.T) {
	content := features.ExtractContent("hello", "", false)
	g := NewGenerator(nil, nil, 0)

	got := g.Generate(context.Background(), content, scoring.PentagonScores{}, Options{Text: "hello"})
	assert.Equal(t, Rules(content, DefaultLanguage), got)
}

func TestGenerator_LLM(t *testing.T) {
	content := features.ExtractContent("hello", "", false)
	client := new(MockLLM)
	client.On("Complete", mock.Anything, suggestSystem, mock.AnythingOfType("string")).Return("Here:\n```json\n"+`{"suggestions":[
		{"target_score":"engagement","improvement":"+5%","action":"Mention a lasting lesson","reason":"evergreen","priority":2},
		{"target_score":"reach","improvement":"+12%","action":"add_hashtag","reason":"Add #golang for discovery","priority":1},
		{"target_score":"reach","improvement":"+3%","action":"add_hashtag","reason":"duplicate","priority":3},
		{"target_score":"engagement","improvement":"+1%","action":"","reason":"empty","priority":4}
	]}`+"\n```", nil)

	g := NewGenerator(client, nil, 0)
	got := g.Generate(context.Background(), content, scoring.PentagonScores{}, Options{Text: "hello", Language: "en"})

	require.Len(t, got, 2)
	assert.Equal(t, AddHashtag, got[0].ID)
	assert.Equal(t, "Add #golang for discovery", got[0].Description)
	assert.Equal(t, string(scoring.Reach), got[0].TargetScore)
	assert.True(t, got[0].Selectable)
	assert.Equal(t, "+12%", got[0].Impact)

	assert.Equal(t, "llm_2", got[1].ID)
	assert.Equal(t, string(scoring.Longevity), got[1].TargetScore, "dimension comes from the wording, not the model's label")
	assert.False(t, got[1].Selectable)
	client.AssertExpectations(t)
}

func TestGenerator_LLMFailureFallsBack(t *testing.T) {
	content := features.ExtractContent("hello", "", false)

	tests := []struct {
		name   string
		output string
		err    error
	}{
		{name: "Provider error", err: errors.New("boom")},
		{name: "Not JSON", output: "I cannot help with that"},
		{name: "Empty list", output: `{"suggestions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockLLM)
			client.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(tt.output, tt.err)

			got := NewGenerator(client, nil, 0).Generate(context.Background(), content, scoring.PentagonScores{}, Options{Text: "hello"})
			assert.Equal(t, Rules(content, DefaultLanguage), got)
		})
	}
}

func TestGenerator_CachesSuggestions(t *testing.T) {
	ctx := context.Background()
	content := features.ExtractContent("hello", "", false)
	client := new(MockLLM)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"suggestions":[{"action":"add_emoji","reason":"Add an emoji","improvement":"+8%","priority":1}]}`, nil).Once()

	tiers := cache.NewTiers(cache.NewLocal(time.Now), nil)
	g := NewGenerator(client, cache.NewTyped[[]models.Tip](tiers, "suggestion", time.Hour), 0)

	first := g.Generate(ctx, content, scoring.PentagonScores{}, Options{Text: "hello"})
	second := g.Generate(ctx, content, scoring.PentagonScores{}, Options{Text: "hello"})

	assert.Equal(t, first, second)
	client.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGenerator_SlowLLMFallsBack(t *testing.T) {
	content := features.ExtractContent("hello", "", false)
	tiers := cache.NewTiers(cache.NewLocal(time.Now), nil)

	tests := []struct {
		name        string
		suggestions *cache.Typed[[]models.Tip]
	}{
		{name: "Uncached"},
		{name: "Cached", suggestions: cache.NewTyped[[]models.Tip](tiers, "suggestion", time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockLLM)
			client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					<-args.Get(0).(context.Context).Done()
				}).
				Return("", context.DeadlineExceeded)

			g := NewGenerator(client, tt.suggestions, 50*time.Millisecond)

			start := time.Now()
			got := g.Generate(context.Background(), content, scoring.PentagonScores{}, Options{Text: "hello"})

			assert.Less(t, time.Since(start), 2*time.Second)
			assert.Equal(t, Rules(content, DefaultLanguage), got)
			client.AssertExpectations(t)
		})
	}
}
