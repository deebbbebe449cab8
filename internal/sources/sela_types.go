package sources

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/models"
)

// Scrape types understood by the scrape API.
const (
	scrapeTwitterProfile = "TWITTER_PROFILE"
	scrapeTwitterPost    = "TWITTER_POST"
)

type scrapeRequest struct {
	URL         string `json:"url"`
	ScrapeType  string `json:"scrapeType"`
	TimeoutMs   int    `json:"timeoutMs"`
	PrincipalID string `json:"principalId,omitempty"`
	PostCount   int    `json:"postCount,omitempty"`
	ReplyCount  int    `json:"replyCount,omitempty"`
}

type profileScrapeResponse struct {
	Data struct {
		Result []selaTweet `json:"result"`
		URL    string      `json:"url"`
		JobID  string      `json:"jobId"`
	} `json:"data"`
}

type postScrapeResponse struct {
	Data struct {
		Result struct {
			Post  *selaTweet  `json:"post"`
			Reply []selaTweet `json:"reply"`
		} `json:"result"`
	} `json:"data"`
}

// selaTweet mirrors the scraper's post record. Several fields arrive with
// inconsistent JSON types and use tolerant decoders.
type selaTweet struct {
	TweetID       flexString `json:"tweetId"`
	Username      string     `json:"username"`
	Content       string     `json:"content"`
	QuoteContent  string     `json:"quoteContent"`
	Image         stringList `json:"image"`
	Video         stringList `json:"video"`
	PostedAt      string     `json:"postedAt"`
	TweetURL      string     `json:"tweetUrl"`
	IsRetweet     bool       `json:"isRetweet"`
	IsQuote       bool       `json:"isQuote"`
	LikesCount    flexInt    `json:"likesCount"`
	RetweetsCount flexInt    `json:"retweetsCount"`
	RepliesCount  flexInt    `json:"repliesCount"`
	ViewsCount    flexInt    `json:"viewsCount"`
}

func (t selaTweet) toModel() models.Tweet {
	tweet := models.Tweet{
		ID:           string(t.TweetID),
		Username:     t.Username,
		Content:      t.Content,
		QuoteContent: t.QuoteContent,
		Images:       []string(t.Image),
		Videos:       []string(t.Video),
		URL:          t.TweetURL,
		IsRetweet:    t.IsRetweet,
		IsQuote:      t.IsQuote,
		Likes:        int(t.LikesCount),
		Retweets:     int(t.RetweetsCount),
		Replies:      int(t.RepliesCount),
		Views:        int(t.ViewsCount),
	}

	if t.PostedAt != "" {
		if ts, err := time.Parse(time.RFC3339, t.PostedAt); err == nil {
			ts = ts.UTC()
			tweet.PostedAt = &ts
		} else {
			logrus.Debugf("Ignoring unparseable postedAt %q on post %s", t.PostedAt, tweet.ID)
		}
	}
	return tweet
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a number, a numeric string or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(int(v))
	return nil
}

// stringList accepts a string, a list of strings or null.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
		} else {
			*l = stringList{s}
		}
	default:
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
	}
	return nil
}
