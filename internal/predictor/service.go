// Package predictor is the score prediction entry point. It resolves the
// author's history and the reply/quote target, runs the scoring engine and
// attaches tips.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/metrics"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/postcontext"
	"github.com/xeo-app/xeo-backend/internal/scoring"
	"github.com/xeo-app/xeo-backend/internal/sources"
	"github.com/xeo-app/xeo-backend/internal/tips"
	"github.com/xeo-app/xeo-backend/internal/usage"
)

// ErrTargetUnavailable is returned by LookupContext when the post provider
// failed, as opposed to the post not existing.
var ErrTargetUnavailable = errors.New("target post unavailable")

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Post types.
const (
	PostOriginal = "original"
	PostReply    = "reply"
	PostQuote    = "quote"
	PostThread   = "thread"
)

var postTypes = []string{PostOriginal, PostReply, PostQuote, PostThread}
var mediaTypes = []string{features.MediaImage, features.MediaVideo, features.MediaGIF}

// ProfileFetcher returns a handle's recent history, typically through the
// profile cache.
type ProfileFetcher interface {
	Fetch(ctx context.Context, handle string, bypass bool) (models.Profile, error)
}

// Request is one prediction request.
type Request struct {
	Handle         string `json:"handle"`
	Content        string `json:"content"`
	PostType       string `json:"post_type"`
	TargetPostURL  string `json:"target_post_url,omitempty"`
	MediaType      string `json:"media_type,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	BypassCache    bool   `json:"bypass_cache,omitempty"`
}

// Validate checks enums and required fields.
func (r Request) Validate() error {
	if normalizeHandle(r.Handle) == "" {
		return fmt.Errorf("%w: handle is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	if !oneOf(r.PostType, postTypes) {
		return fmt.Errorf("%w: post_type must be one of %s", ErrInvalidRequest, strings.Join(postTypes, ", "))
	}
	if r.MediaType != "" && !oneOf(r.MediaType, mediaTypes) {
		return fmt.Errorf("%w: media_type must be one of %s", ErrInvalidRequest, strings.Join(mediaTypes, ", "))
	}
	if r.TargetLanguage != "" && !tips.ValidLanguage(r.TargetLanguage) {
		return fmt.Errorf("%w: target_language must be one of %s", ErrInvalidRequest, strings.Join(tips.Languages, ", "))
	}
	return nil
}

// normalizeHandle drops surrounding space and a leading "@".
func normalizeHandle(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// ContextSummary is the reply/quote target section of a Result.
type ContextSummary struct {
	TargetPostID      string            `json:"target_post_id"`
	TargetPostContent string            `json:"target_post_content"`
	TargetAuthor      string            `json:"target_author"`
	Adjustments       map[string]string `json:"context_adjustments"`
	Recommendations   []string          `json:"recommendations"`
}

// Result is the response of Predict.
type Result struct {
	Scores    scoring.PentagonScores      `json:"scores"`
	Overall   float64                     `json:"overall"`
	Breakdown scoring.ActionProbabilities `json:"breakdown"`
	QuickTips []models.Tip                `json:"quick_tips"`
	Context   *ContextSummary             `json:"context,omitempty"`
}

// Options configures a Service.
type Options struct {
	FetchTimeout    time.Duration
	DefaultLanguage string
	Now             func() time.Time
}

// Service orchestrates predictions.
type Service struct {
	profiles ProfileFetcher
	posts    sources.PostSource
	targets  *cache.Typed[models.Tweet]
	tips     *tips.Generator
	usage    *usage.Recorder
	opts     Options
}

// NewService creates a prediction service. targets and recorder may be nil.
func NewService(profiles ProfileFetcher, posts sources.PostSource, targets *cache.Typed[models.Tweet], generator *tips.Generator, recorder *usage.Recorder, opts Options) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = tips.DefaultLanguage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		profiles: profiles,
		posts:    posts,
		targets:  targets,
		tips:     generator,
		usage:    recorder,
		opts:     opts,
	}
}

// Predict scores a draft. Upstream failures never fail the request: a
// missing profile becomes the default profile and a missing target drops the
// context section.
func (s *Service) Predict(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := s.opts.Now()
	handle := normalizeHandle(req.Handle)
	lang := req.TargetLanguage
	if lang == "" {
		lang = s.opts.DefaultLanguage
	}

	var (
		wg      sync.WaitGroup
		profile features.ProfileFeatures
		target  *models.Tweet
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		profile = s.resolveProfile(ctx, handle, req.BypassCache)
	}()

	if wantsContext(req) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
			defer cancel()

			t, err := s.resolveTarget(fetchCtx, req.TargetPostURL, req.BypassCache)
			if err != nil {
				logrus.Warnf("Scoring without context for %s: %v", req.TargetPostURL, err)
				return
			}
			target = t
		}()
	}

	wg.Wait()

	content := features.ExtractContent(req.Content, req.MediaType, req.PostType == PostQuote)

	var adj *postcontext.Adjustment
	var boost scoring.Boost
	if target != nil {
		adj = postcontext.Analyze(*target, s.opts.Now(), lang)
		boost = adj.Boost
	}

	scores, probs := scoring.Analyze(content, profile, boost)

	result := &Result{
		Scores:    scores.Rounded(),
		Overall:   scoring.Round1(scores.Overall()),
		Breakdown: probs,
		QuickTips: s.tips.Generate(ctx, content, scores, tips.Options{
			Text:     req.Content,
			Language: lang,
			Bypass:   req.BypassCache,
		}),
	}
	if adj != nil {
		result.Context = &ContextSummary{
			TargetPostID:      target.ID,
			TargetPostContent: target.Content,
			TargetAuthor:      target.Username,
			Adjustments:       adj.Adjustments,
			Recommendations:   adj.Reasons,
		}
	}

	if s.usage != nil {
		s.usage.Record(ctx, handle, req.PostType)
	}
	metrics.ObservePrediction(req.PostType, start)
	logrus.WithFields(logrus.Fields{
		"handle":    handle,
		"post_type": req.PostType,
		"overall":   result.Overall,
		"context":   result.Context != nil,
	}).Info("Prediction served")

	return result, nil
}

func wantsContext(req Request) bool {
	return (req.PostType == PostReply || req.PostType == PostQuote) && strings.TrimSpace(req.TargetPostURL) != ""
}

func (s *Service) resolveProfile(ctx context.Context, handle string, bypass bool) features.ProfileFeatures {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	p, err := s.profiles.Fetch(fetchCtx, handle, bypass)
	if err != nil {
		logrus.Warnf("Using default profile for @%s: %v", handle, err)
		return features.DefaultProfile(handle)
	}
	return features.ExtractProfile(p)
}

// resolveTarget fetches the target post through the context cache. Invalid
// URLs and posts outside the lookup window keep their sentinel errors; any
// other failure is ErrTargetUnavailable.
func (s *Service) resolveTarget(ctx context.Context, postURL string, bypass bool) (*models.Tweet, error) {
	_, id, err := sources.ParsePostURL(postURL)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context) (models.Tweet, error) {
		t, err := s.posts.FetchPost(ctx, postURL)
		if err != nil {
			return models.Tweet{}, err
		}
		return *t, nil
	}

	var t models.Tweet
	if s.targets != nil {
		t, err = s.targets.GetOrFetch(ctx, id, bypass, fetch)
	} else {
		t, err = fetch(ctx)
	}
	if err != nil {
		if errors.Is(err, sources.ErrPostNotFound) || errors.Is(err, sources.ErrInvalidPostURL) {
			return nil, err
		}
		metrics.IncUpstreamFailure(s.posts.GetName())
		return nil, fmt.Errorf("%w: %v", ErrTargetUnavailable, err)
	}
	return &t, nil
}

// LookupContext resolves a target post and builds its presentation report.
func (s *Service) LookupContext(ctx context.Context, postURL string, bypass bool, lang string) (*postcontext.Report, error) {
	if lang == "" {
		lang = s.opts.DefaultLanguage
	}
	t, err := s.resolveTarget(ctx, postURL, bypass)
	if err != nil {
		logrus.Errorf("Context lookup for %s failed: %v", postURL, err)
		return nil, err
	}
	if s.usage != nil {
		s.usage.Record(ctx, t.Username, usage.KindContext)
	}
	return postcontext.BuildReport(*t, s.opts.Now(), lang), nil
}
