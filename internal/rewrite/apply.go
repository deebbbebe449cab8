package rewrite

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/tips"
)

// MaxAppliedTips bounds how many tips one apply call honours.
const MaxAppliedTips = 3

// AppliedTip records a transform that was run.
type AppliedTip struct {
	ID          string `json:"tip_id"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// ApplyResult is the outcome of ApplyTips.
type ApplyResult struct {
	Original             string            `json:"original_content"`
	Suggested            string            `json:"suggested_content"`
	AppliedTips          []AppliedTip      `json:"applied_tips"`
	PredictedImprovement map[string]string `json:"predicted_improvement"`
}

var emojiSets = []struct {
	keywords []string
	emojis   []string
}{
	{[]string{"좋", "행복", "기쁘", "great", "happy", "love", "thanks"}, []string{"😊", "🙂", "👍", "✨", "💯", "🎉", "❤️", "🔥"}},
	{[]string{"생각", "궁금", "왜", "think", "wonder", "why", "idea"}, []string{"🤔", "💭", "🧐", "💡"}},
	{[]string{"날씨", "햇살", "비", "weather", "sunny", "rain"}, []string{"☀️", "🌤️", "🌈", "🌸"}},
}

var generalEmojis = []string{"✅", "📌", "💪", "🚀", "⭐"}

var hashtagSets = []struct {
	keywords []string
	tags     []string
}{
	{[]string{"ai", "개발", "코딩", "tech", "code", "dev"}, []string{"#테크", "#기술", "#AI", "#개발"}},
	{[]string{"생각", "느낌", "마음", "thought", "feel"}, []string{"#생각", "#thoughts", "#인사이트"}},
	{[]string{"오늘", "일상", "today", "daily"}, []string{"#일상", "#데일리", "#daily"}},
}

var defaultHashtags = []string{"#일상", "#오늘"}

var questionSuffixes = map[string][]string{
	"ko": {" 여러분은 어떻게 생각하세요?", " 여러분의 의견은요?", " 어떻게 생각하시나요?", " 공감하시나요?"},
	"en": {" What do you think?", " Agree?", " How about you?"},
	"ja": {" みなさんはどう思いますか?", " 共感しますか?"},
	"zh": {" 大家怎么看?", " 你同意吗?"},
}

var ctaPhrases = map[string][]string{
	"ko": {" 의견 남겨주세요! 💬", " 공감하시면 좋아요 부탁드려요 ❤️", " 생각 공유해주세요!", " 댓글로 알려주세요 👇"},
	"en": {" Let me know in the replies! 💬", " Share your take below 👇"},
	"ja": {" コメントで教えてください! 💬", " ぜひ感想をシェアしてください 👇"},
	"zh": {" 欢迎留言告诉我! 💬", " 在评论区分享你的想法 👇"},
}

// Phrases that already read as a call to action in any supported language.
var ctaMarkers = []string{"남겨", "부탁", "공유", "댓글", "コメント", "シェア", "留言", "评论"}

type transform func(text, lang string) string

var transforms = map[string]transform{
	tips.AddEmoji:    addEmoji,
	tips.AddQuestion: addQuestion,
	tips.AddHashtag:  addHashtag,
	tips.AddCTA:      addCTA,
}

// ApplyTips runs the transforms for up to MaxAppliedTips of tipIDs, in the
// order given. Unknown or non-selectable ids are ignored. Choices depend only
// on the input text so the same request always yields the same draft.
func ApplyTips(text string, tipIDs []string, lang string) *ApplyResult {
	if !tips.ValidLanguage(lang) {
		lang = tips.DefaultLanguage
	}
	if len(tipIDs) > MaxAppliedTips {
		tipIDs = tipIDs[:MaxAppliedTips]
	}

	result := &ApplyResult{
		Original:             text,
		Suggested:            text,
		AppliedTips:          []AppliedTip{},
		PredictedImprovement: map[string]string{},
	}

	totals := map[string]int{}
	for _, id := range tipIDs {
		fn, ok := transforms[id]
		if !ok {
			continue
		}
		effect, _ := tips.EffectOf(id)

		result.Suggested = fn(result.Suggested, lang)
		result.AppliedTips = append(result.AppliedTips, AppliedTip{
			ID:          id,
			Description: tips.Describe(id, lang),
			Impact:      effect.Impact(),
		})
		totals[string(effect.Dimension)] += effect.Percent
	}

	for dim, pct := range totals {
		result.PredictedImprovement[dim] = fmt.Sprintf("+%d%%", pct)
	}
	return result
}

// pick selects an entry by the text's length.
func pick(options []string, text string) string {
	return options[utf8.RuneCountInString(text)%len(options)]
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func addEmoji(text, _ string) string {
	if features.ContainsEmoji(text) {
		return text
	}

	lower := strings.ToLower(text)
	emoji := pick(generalEmojis, text)
	for _, set := range emojiSets {
		if containsAny(lower, set.keywords) {
			emoji = pick(set.emojis, text)
			break
		}
	}

	if head, tail, ok := strings.Cut(text, "."); ok {
		if tail == "" {
			return head + " " + emoji
		}
		return head + " " + emoji + "." + tail
	}
	return text + " " + emoji
}

func addQuestion(text, lang string) string {
	if strings.ContainsAny(text, "?？") {
		return text
	}
	text = strings.TrimRight(text, ".")
	return text + pick(questionSuffixes[lang], text)
}

func addHashtag(text, _ string) string {
	if strings.Contains(text, "#") {
		return text
	}

	lower := strings.ToLower(text)
	tags := defaultHashtags
	for _, set := range hashtagSets {
		if containsAny(lower, set.keywords) {
			tags = twoOf(set.tags, text)
			break
		}
	}
	return text + " " + strings.Join(tags, " ")
}

// twoOf picks two distinct tags, kept in table order.
func twoOf(tags []string, text string) []string {
	n := utf8.RuneCountInString(text)
	i, j := n%len(tags), (n+1)%len(tags)
	if i > j {
		i, j = j, i
	}
	return []string{tags[i], tags[j]}
}

func addCTA(text, lang string) string {
	if containsAny(text, ctaMarkers) || features.ExtractContent(text, "", false).HasCTA {
		return text
	}
	return text + pick(ctaPhrases[lang], text)
}
