package tips

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/llm"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/scoring"
)

// Options carries the per-request inputs the rule table does not need.
type Options struct {
	Text     string
	Language string
	Bypass   bool
}

// Generator produces tips, phrased by an LLM when one is configured and by
// the rule table otherwise.
type Generator struct {
	client  llm.Client
	cache   *cache.Typed[[]models.Tip]
	timeout time.Duration
}

// DefaultSuggestionTimeout bounds one LLM suggestion call.
const DefaultSuggestionTimeout = 10 * time.Second

// NewGenerator builds a Generator. client and suggestions may be nil. A
// suggestion call running longer than timeout is abandoned and the rule tips
// are served instead.
func NewGenerator(client llm.Client, suggestions *cache.Typed[[]models.Tip], timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultSuggestionTimeout
	}
	return &Generator{client: client, cache: suggestions, timeout: timeout}
}

// Generate returns at most MaxTips tips for the draft.
func (g *Generator) Generate(ctx context.Context, content features.ContentFeatures, scores scoring.PentagonScores, opts Options) []models.Tip {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	fallback := Rules(content, opts.Language)
	if g == nil || g.client == nil || opts.Text == "" {
		return fallback
	}

	// The cache runs fetch detached from the caller, so the deadline is set here.
	fetch := func(ctx context.Context) ([]models.Tip, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.suggest(ctx, content, scores, opts)
	}

	var (
		out []models.Tip
		err error
	)
	if g.cache != nil {
		out, err = g.cache.GetOrFetch(ctx, SuggestionKey(opts.Text, scores, opts.Language), opts.Bypass, fetch)
	} else {
		out, err = fetch(ctx)
	}
	if err != nil {
		logrus.Warnf("LLM suggestions unavailable, using rule tips: %v", err)
		return fallback
	}
	return out
}

// SuggestionKey identifies a suggestion set by the draft's opening, its two
// headline scores and the output language.
func SuggestionKey(text string, scores scoring.PentagonScores, lang string) string {
	runes := []rune(text)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	raw := fmt.Sprintf("%s|%.0f|%.0f|%s", string(runes), scores.Reach, scores.Engagement, lang)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type suggestionResponse struct {
	Suggestions []suggestion `json:"suggestions"`
}

type suggestion struct {
	TargetScore string `json:"target_score"`
	Improvement string `json:"improvement"`
	Action      string `json:"action"`
	Reason      string `json:"reason"`
	Priority    int    `json:"priority"`
}

const suggestSystem = `You are an expert on the X (Twitter) ranking algorithm. You suggest concrete edits that raise a draft's predicted engagement. Reply with JSON only.`

func (g *Generator) suggest(ctx context.Context, content features.ContentFeatures, scores scoring.PentagonScores, opts Options) ([]models.Tip, error) {
	prompt := buildPrompt(content, scores, opts)

	text, err := g.client.Complete(ctx, suggestSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}

	var resp suggestionResponse
	if err := llm.ExtractJSON(text, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	out := fromSuggestions(resp.Suggestions)
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no suggestions")
	}
	logrus.Debugf("LLM produced %d suggestions", len(out))
	return out, nil
}

func buildPrompt(content features.ContentFeatures, scores scoring.PentagonScores, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft:\n%s\n\n", opts.Text)
	fmt.Fprintf(&b, "Predicted scores (0-100): reach %.0f, engagement %.0f, virality %.0f, quality %.0f, longevity %.0f.\n",
		scores.Reach, scores.Engagement, scores.Virality, scores.Quality, scores.Longevity)
	fmt.Fprintf(&b, "Weakest dimension: %s.\n", scores.Weakest())
	if fired := Fired(content); len(fired) > 0 {
		fmt.Fprintf(&b, "Missing features (tip ids): %s.\n", strings.Join(fired, ", "))
	}
	fmt.Fprintf(&b, "\nWrite up to %d suggestions in %s. Use a tip id as the action when one applies.\n", MaxTips, LanguageName(opts.Language))
	b.WriteString(`Respond as {"suggestions":[{"target_score":"engagement","improvement":"+10%","action":"...","reason":"...","priority":1}]}`)
	return b.String()
}

// fromSuggestions converts model output to tips. The target dimension is
// always derived locally from the wording.
func fromSuggestions(in []suggestion) []models.Tip {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Priority < in[j].Priority })

	seen := make(map[string]bool)
	out := make([]models.Tip, 0, MaxTips)
	for i, s := range in {
		if len(out) == MaxTips {
			break
		}
		action := strings.TrimSpace(s.Action)
		if action == "" {
			continue
		}

		id := fmt.Sprintf("llm_%d", i+1)
		description := action
		selectable := false
		if r, ok := ruleByID(action); ok {
			id = r.id
			selectable = r.Selectable
			if s.Reason != "" {
				description = s.Reason
			}
		} else if s.Reason != "" {
			description = action + " - " + s.Reason
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		out = append(out, models.Tip{
			ID:          id,
			Description: description,
			Impact:      s.Improvement,
			TargetScore: string(ClassifyDimension(description)),
			Selectable:  selectable,
		})
	}
	return out
}
