package postcontext

type messages struct {
	largeAccount string
	freshness    string // %d minutes
	competition  string // %s reply count

	tipTiming   string // %d minutes
	tipTrending string
	tipCrowded  string // %s reply count
	tipBigReach string
}

var catalog = map[string]messages{
	"ko": {
		largeAccount: "대형 계정 포스트로 높은 노출이 예상됩니다",
		freshness:    "포스트가 %d분 전에 작성되어 신선도 보너스가 적용됩니다",
		competition:  "현재 답글 %s개로 경쟁이 있으니 차별화된 관점을 제시하세요",
		tipTiming:    "🕐 포스트가 %d분 전에 작성되어 답글 달기 최적의 타이밍입니다",
		tipTrending:  "🔥 현재 트렌딩 중인 포스트입니다. 노출 기회가 높습니다",
		tipCrowded:   "💬 이미 %s 답글이 있어 차별화된 관점이 필요합니다",
		tipBigReach:  "🎯 대형 계정의 포스트로 높은 노출이 예상됩니다",
	},
	"en": {
		largeAccount: "Large account post, expect high exposure",
		freshness:    "Posted %d minutes ago, freshness bonus applied",
		competition:  "%s replies already, bring a distinct angle to stand out",
		tipTiming:    "🕐 Posted %d minutes ago, this is the best window to reply",
		tipTrending:  "🔥 This post is trending right now, exposure chances are high",
		tipCrowded:   "💬 %s replies already, a differentiated take is needed",
		tipBigReach:  "🎯 Post from a large account, expect high exposure",
	},
	"ja": {
		largeAccount: "大型アカウントの投稿のため高い露出が見込まれます",
		freshness:    "%d分前の投稿のため鮮度ボーナスが適用されます",
		competition:  "すでに返信が%s件あるため、差別化した視点を示しましょう",
		tipTiming:    "🕐 %d分前の投稿です。返信に最適なタイミングです",
		tipTrending:  "🔥 現在トレンド中の投稿です。露出の機会が高いです",
		tipCrowded:   "💬 すでに%s件の返信があり、差別化が必要です",
		tipBigReach:  "🎯 大型アカウントの投稿のため高い露出が見込まれます",
	},
	"zh": {
		largeAccount: "大号帖子，预计曝光较高",
		freshness:    "帖子发布于%d分钟前，已应用新鲜度加成",
		competition:  "已有%s条回复，竞争激烈，请提出差异化观点",
		tipTiming:    "🕐 帖子发布于%d分钟前，是回复的最佳时机",
		tipTrending:  "🔥 该帖子正在流行，曝光机会很高",
		tipCrowded:   "💬 已有%s条回复，需要差异化的观点",
		tipBigReach:  "🎯 大号帖子，预计曝光较高",
	},
}

// DefaultLanguage is used when a caller passes an unknown language.
const DefaultLanguage = "ko"

func messagesFor(lang string) messages {
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog[DefaultLanguage]
}
