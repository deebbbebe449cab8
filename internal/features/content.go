package features

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Media types accepted on a draft.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaGIF   = "gif"
)

// Sweet spot for post length, in characters.
const (
	OptimalMinChars    = 70
	OptimalMaxChars    = 200
	OptimalDecayChars  = 280 // chars past the band over which the ratio falls by 1.0
	OptimalLengthFloor = 0.5
)

// ContentFeatures is the structural shape of a single post.
type ContentFeatures struct {
	CharCount     int `json:"char_count"`
	WordCount     int `json:"word_count"`
	SentenceCount int `json:"sentence_count"`

	HasQuestion bool `json:"has_question"`
	HasCTA      bool `json:"has_cta"`
	HasEmoji    bool `json:"has_emoji"`
	EmojiCount  int  `json:"emoji_count"`

	HasMedia  bool   `json:"has_media"`
	MediaType string `json:"media_type,omitempty"`

	HashtagCount int  `json:"hashtag_count"`
	MentionCount int  `json:"mention_count"`
	HasURL       bool `json:"has_url"`

	IsThreadStarter bool `json:"is_thread_starter"`
	IsQuote         bool `json:"is_quote"`
}

// OptimalLength scores the character count against the 70-200 sweet spot.
// Inside the band it is 1.0, below it scales linearly from 0, above it decays
// linearly and never drops below 0.5.
func (f ContentFeatures) OptimalLength() float64 {
	c := f.CharCount
	switch {
	case c >= OptimalMinChars && c <= OptimalMaxChars:
		return 1.0
	case c < OptimalMinChars:
		return float64(c) / OptimalMinChars
	default:
		v := 1.0 - float64(c-OptimalMaxChars)/OptimalDecayChars
		if v < OptimalLengthFloor {
			return OptimalLengthFloor
		}
		return v
	}
}

var (
	// Emoticons, pictographs, transport, supplemental symbols, flags,
	// dingbats and misc symbols. CJK and Hangul are deliberately outside.
	emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F900}-\x{1F9FF}\x{1FA70}-\x{1FAFF}\x{1F1E6}-\x{1F1FF}\x{2600}-\x{27BF}\x{1F170}-\x{1F251}\x{2B50}\x{2B55}\x{24C2}]+`)

	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	threadPattern  = regexp.MustCompile(`(?i)🧵|\(\d+/\d+\)|^\d+\.|thread:`)
	ctaPattern     = regexp.MustCompile(`(?i)\b(?:` + strings.Join(ctaPhrases, "|") + `)\b`)
)

// Canonical call-to-action phrasings, matched case-insensitively.
var ctaPhrases = []string{
	`check\s+(?:this\s+)?out`,
	`let\s+me\s+know`,
	`what\s+do\s+you\s+think`,
	`share\s+your`,
	`tell\s+me`,
	`drop\s+a`,
	`comment`,
	`reply`,
	`follow`,
	`rt\s+if`,
	`like\s+if`,
}

// ExtractContent parses post text into a ContentFeatures record. mediaType is
// one of the Media* constants or empty when nothing is attached.
func ExtractContent(text, mediaType string, isQuote bool) ContentFeatures {
	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	emojiCount := len(emojiPattern.FindAllString(text, -1))

	return ContentFeatures{
		CharCount:       utf8.RuneCountInString(text),
		WordCount:       len(strings.Fields(text)),
		SentenceCount:   sentences,
		HasQuestion:     strings.Contains(text, "?"),
		HasCTA:          ctaPattern.MatchString(text),
		HasEmoji:        emojiCount > 0,
		EmojiCount:      emojiCount,
		HasMedia:        mediaType != "",
		MediaType:       mediaType,
		HashtagCount:    len(hashtagPattern.FindAllString(text, -1)),
		MentionCount:    len(mentionPattern.FindAllString(text, -1)),
		HasURL:          urlPattern.MatchString(text),
		IsThreadStarter: threadPattern.MatchString(text),
		IsQuote:         isQuote,
	}
}

// ContainsEmoji reports whether text carries at least one emoji.
func ContainsEmoji(text string) bool {
	return emojiPattern.MatchString(text)
}

// Hashtags returns the hashtag words in text without the leading '#'.
func Hashtags(text string) []string {
	matches := hashtagPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimPrefix(m, "#"))
	}
	return out
}
