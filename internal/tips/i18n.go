package tips

// Supported tip languages.
var Languages = []string{"ko", "en", "ja", "zh"}

const DefaultLanguage = "ko"

// ValidLanguage reports whether lang has tip wording.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

var descriptions = map[string]map[string]string{
	AddEmoji: {
		"ko": "이모지를 추가하면 engagement +8% 예상",
		"en": "Adding an emoji is expected to lift engagement by 8%",
		"ja": "絵文字を追加するとエンゲージメント+8%が見込まれます",
		"zh": "添加表情符号预计可提升8%的互动",
	},
	AddQuestion: {
		"ko": "질문 형태로 바꾸면 reply율 +15% 예상",
		"en": "Phrasing it as a question is expected to lift replies by 15%",
		"ja": "質問形式にすると返信率+15%が見込まれます",
		"zh": "改为提问形式预计可提升15%的回复率",
	},
	AddMediaHint: {
		"ko": "이미지를 추가하면 reach +20% 예상",
		"en": "Attaching an image is expected to lift reach by 20%",
		"ja": "画像を追加するとリーチ+20%が見込まれます",
		"zh": "添加图片预计可提升20%的触达",
	},
	ExpandContent: {
		"ko": "내용을 조금 더 추가하면 dwell time 증가 예상",
		"en": "A little more detail should increase dwell time",
		"ja": "もう少し内容を加えると滞在時間の増加が見込まれます",
		"zh": "再补充一些内容预计可增加停留时间",
	},
	ShortenContent: {
		"ko": "내용을 간결하게 줄이면 완독률 상승 예상",
		"en": "Trimming it down should raise the read-through rate",
		"ja": "簡潔にすると読了率の上昇が見込まれます",
		"zh": "精简内容预计可提升完读率",
	},
	AddHashtag: {
		"ko": "관련 해시태그 1-2개를 추가해보세요",
		"en": "Add 1-2 relevant hashtags",
		"ja": "関連ハッシュタグを1-2個追加してみましょう",
		"zh": "添加1-2个相关标签",
	},
	ReduceHashtags: {
		"ko": "해시태그를 3개 이하로 줄이면 품질 점수 상승",
		"en": "Keeping hashtags to 3 or fewer raises the quality score",
		"ja": "ハッシュタグを3個以下にすると品質スコアが上がります",
		"zh": "将标签减少到3个以内可提升质量分",
	},
	AddCTA: {
		"ko": "CTA를 추가하면 참여도 +10% 예상",
		"en": "Adding a call to action is expected to lift engagement by 10%",
		"ja": "CTAを追加するとエンゲージメント+10%が見込まれます",
		"zh": "添加行动号召预计可提升10%的参与度",
	},
}

// Describe returns the wording for tip id in lang, falling back to Korean.
func Describe(id, lang string) string {
	byLang := descriptions[id]
	if d, ok := byLang[lang]; ok {
		return d
	}
	return byLang[DefaultLanguage]
}

// LanguageName maps a language code to the name used in model prompts.
func LanguageName(lang string) string {
	switch lang {
	case "en":
		return "English"
	case "ja":
		return "Japanese"
	case "zh":
		return "Chinese"
	default:
		return "Korean"
	}
}
