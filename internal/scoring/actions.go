package scoring

// Action names a viewer reaction the estimator assigns a probability to.
type Action string

const (
	Favorite     Action = "favorite"
	Reply        Action = "reply"
	Repost       Action = "repost"
	Quote        Action = "quote"
	Click        Action = "click"
	ProfileClick Action = "profile_click"
	Share        Action = "share"
	Dwell        Action = "dwell"
	VideoView    Action = "video_view"
	FollowAuthor Action = "follow_author"

	NotInterested Action = "not_interested"
	BlockAuthor   Action = "block_author"
	MuteAuthor    Action = "mute_author"
	Report        Action = "report"
)

// Actions lists all 14 actions, positive first.
var Actions = []Action{
	Favorite, Reply, Repost, Quote, Click, ProfileClick, Share, Dwell, VideoView, FollowAuthor,
	NotInterested, BlockAuthor, MuteAuthor, Report,
}

// ActionProbabilities holds one probability per action.
type ActionProbabilities struct {
	Favorite     float64 `json:"p_favorite"`
	Reply        float64 `json:"p_reply"`
	Repost       float64 `json:"p_repost"`
	Quote        float64 `json:"p_quote"`
	Click        float64 `json:"p_click"`
	ProfileClick float64 `json:"p_profile_click"`
	Share        float64 `json:"p_share"`
	Dwell        float64 `json:"p_dwell"`
	VideoView    float64 `json:"p_video_view"`
	FollowAuthor float64 `json:"p_follow_author"`

	NotInterested float64 `json:"p_not_interested"`
	BlockAuthor   float64 `json:"p_block_author"`
	MuteAuthor    float64 `json:"p_mute_author"`
	Report        float64 `json:"p_report"`
}

func (p *ActionProbabilities) field(a Action) *float64 {
	switch a {
	case Favorite:
		return &p.Favorite
	case Reply:
		return &p.Reply
	case Repost:
		return &p.Repost
	case Quote:
		return &p.Quote
	case Click:
		return &p.Click
	case ProfileClick:
		return &p.ProfileClick
	case Share:
		return &p.Share
	case Dwell:
		return &p.Dwell
	case VideoView:
		return &p.VideoView
	case FollowAuthor:
		return &p.FollowAuthor
	case NotInterested:
		return &p.NotInterested
	case BlockAuthor:
		return &p.BlockAuthor
	case MuteAuthor:
		return &p.MuteAuthor
	case Report:
		return &p.Report
	}
	return nil
}

// Get returns the probability of a, or 0 for an unknown action.
func (p ActionProbabilities) Get(a Action) float64 {
	if f := p.field(a); f != nil {
		return *f
	}
	return 0
}

// Set assigns the probability of a. Unknown actions are ignored.
func (p *ActionProbabilities) Set(a Action, v float64) {
	if f := p.field(a); f != nil {
		*f = v
	}
}

// Add shifts the probability of a by delta.
func (p *ActionProbabilities) Add(a Action, delta float64) {
	if f := p.field(a); f != nil {
		*f += delta
	}
}

// Map returns the probabilities keyed by their wire names (p_<action>).
func (p ActionProbabilities) Map() map[string]float64 {
	out := make(map[string]float64, len(Actions))
	for _, a := range Actions {
		out["p_"+string(a)] = p.Get(a)
	}
	return out
}

// ParseAction accepts both "click" and "p_click" forms.
func ParseAction(name string) (Action, bool) {
	if len(name) > 2 && name[:2] == "p_" {
		name = name[2:]
	}
	for _, a := range Actions {
		if string(a) == name {
			return a, true
		}
	}
	return "", false
}
