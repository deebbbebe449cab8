package predictor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/features"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/postcontext"
	"github.com/xeo-app/xeo-backend/internal/scoring"
	"github.com/xeo-app/xeo-backend/internal/sources"
	"github.com/xeo-app/xeo-backend/internal/tips"
	"github.com/xeo-app/xeo-backend/internal/usage"
)

// MockProfileFetcher is a mock implementation of ProfileFetcher
type MockProfileFetcher struct {
	mock.Mock
}

func (m *MockProfileFetcher) Fetch(ctx context.Context, handle string, bypass bool) (models.Profile, error) {
	args := m.Called(ctx, handle, bypass)
	p, _ := args.Get(0).(models.Profile)
	return p, args.Error(1)
}

// MockPostSource is a mock implementation of sources.PostSource
type MockPostSource struct {
	mock.Mock
}

func (m *MockPostSource) GetName() string { return "mock" }

func (m *MockPostSource) IsEnabled() bool { return true }

func (m *MockPostSource) FetchPost(ctx context.Context, postURL string) (*models.Tweet, error) {
	args := m.Called(ctx, postURL)
	t, _ := args.Get(0).(*models.Tweet)
	return t, args.Error(1)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const targetURL = "https://x.com/bigaccount/status/1234567890"

func history() models.Profile {
	return models.Profile{
		Username: "gopher",
		Tweets: []models.Tweet{
			{ID: "1", Likes: 100, Retweets: 10, Replies: 5, Views: 1000, IsRetweet: true},
			{ID: "2", Likes: 200, Retweets: 20, Replies: 10, Views: 2000},
		},
	}
}

func bigTarget() *models.Tweet {
	posted := fixedNow.Add(-15 * time.Minute)
	return &models.Tweet{
		ID:       "1234567890",
		Username: "bigaccount",
		Content:  "Big announcement",
		Views:    170_000_000,
		Replies:  8_200,
		PostedAt: &posted,
	}
}

// MockLLM is a mock implementation of llm.Client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func newService(profiles ProfileFetcher, posts sources.PostSource, targets *cache.Typed[models.Tweet], recorder *usage.Recorder) *Service {
	return NewService(profiles, posts, targets, tips.NewGenerator(nil, nil, 0), recorder, Options{
		FetchTimeout: 200 * time.Millisecond,
		Now:          func() time.Time { return fixedNow },
	})
}

func TestRequest_Validate(t *testing.T) {
	valid := Request{Handle: "gopher", Content: "hi", PostType: PostOriginal}

	tests := []struct {
		name   string
		mutate func(r *Request)
		ok     bool
	}{
		{"Valid", func(r *Request) {}, true},
		{"Valid with all options", func(r *Request) { r.MediaType = "gif"; r.TargetLanguage = "ja"; r.PostType = PostThread }, true},
		{"Missing handle", func(r *Request) { r.Handle = " @ " }, false},
		{"Only an at sign", func(r *Request) { r.Handle = "@" }, false},
		{"Space after at sign", func(r *Request) { r.Handle = "@   " }, false},
		{"Padded handle", func(r *Request) { r.Handle = "  @gopher  " }, true},
		{"Blank content", func(r *Request) { r.Content = "   " }, false},
		{"Unknown post type", func(r *Request) { r.PostType = "story" }, false},
		{"Unknown media", func(r *Request) { r.MediaType = "audio" }, false},
		{"Unknown language", func(r *Request) { r.TargetLanguage = "fr" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			}
		})
	}
}

func TestPredict_Original(t *testing.T) {
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "gopher", false).Return(history(), nil)
	posts := new(MockPostSource)
	recorder := usage.NewRecorder(nil, func() time.Time { return fixedNow })

	s := newService(profiles, posts, nil, recorder)
	req := Request{Handle: "@gopher", Content: "Hello world! 🌍 What do you think? #tech", PostType: PostOriginal, TargetPostURL: targetURL}

	res, err := s.Predict(context.Background(), req)
	require.NoError(t, err)

	content := features.ExtractContent(req.Content, "", false)
	wantScores, wantProbs := scoring.Analyze(content, features.ExtractProfile(history()), nil)
	assert.Equal(t, wantScores.Rounded(), res.Scores)
	assert.Equal(t, wantProbs, res.Breakdown)
	assert.Equal(t, scoring.Round1(wantScores.Overall()), res.Overall)
	assert.Nil(t, res.Context, "originals never carry context")
	assert.LessOrEqual(t, len(res.QuickTips), tips.MaxTips)

	posts.AssertNotCalled(t, "FetchPost", mock.Anything, mock.Anything)
	assert.Equal(t, 1, recorder.Snapshot(time.Time{}, "all").TotalAnalyses)
}

func TestPredict_DefaultProfileOnFailure(t *testing.T) {
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "ghost", false).Return(models.Profile{}, errors.New("scrape API returned status 502"))

	s := newService(profiles, new(MockPostSource), nil, nil)
	res, err := s.Predict(context.Background(), Request{Handle: "ghost", Content: "hello", PostType: PostOriginal})
	require.NoError(t, err)

	want, _ := scoring.Analyze(features.ExtractContent("hello", "", false), features.DefaultProfile("ghost"), nil)
	assert.Equal(t, want.Rounded(), res.Scores)
}

func TestPredict_ProfileTimeout(t *testing.T) {
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "slow", false).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(models.Profile{}, context.DeadlineExceeded)

	s := newService(profiles, new(MockPostSource), nil, nil)
	res, err := s.Predict(context.Background(), Request{Handle: "slow", Content: "hello", PostType: PostOriginal})
	require.NoError(t, err)

	want, _ := scoring.Analyze(features.ExtractContent("hello", "", false), features.DefaultProfile("slow"), nil)
	assert.Equal(t, want.Rounded(), res.Scores)
}

func TestPredict_ReplyWithContext(t *testing.T) {
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "gopher", false).Return(history(), nil)
	posts := new(MockPostSource)
	posts.On("FetchPost", mock.Anything, targetURL).Return(bigTarget(), nil)

	s := newService(profiles, posts, nil, nil)
	res, err := s.Predict(context.Background(), Request{Handle: "gopher", Content: "Congrats!", PostType: PostReply, TargetPostURL: targetURL, TargetLanguage: "en"})
	require.NoError(t, err)

	require.NotNil(t, res.Context)
	assert.Equal(t, "1234567890", res.Context.TargetPostID)
	assert.Equal(t, "bigaccount", res.Context.TargetAuthor)
	assert.Equal(t, map[string]string{
		postcontext.ReasonLargeAccount:     "+25%",
		postcontext.ReasonFreshness:        "+15%",
		postcontext.ReasonReplyCompetition: "-10%",
	}, res.Context.Adjustments)
	assert.Len(t, res.Context.Recommendations, 3)

	adj := postcontext.Analyze(*bigTarget(), fixedNow, "en")
	_, want := scoring.Analyze(features.ExtractContent("Congrats!", "", false), features.ExtractProfile(history()), adj.Boost)
	assert.Equal(t, want, res.Breakdown)
}

func TestPredict_ContextOmitted(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		setup func(m *MockPostSource)
	}{
		{
			name: "Not found",
			url:  targetURL,
			setup: func(m *MockPostSource) {
				m.On("FetchPost", mock.Anything, targetURL).Return(nil, sources.ErrPostNotFound)
			},
		},
		{
			name: "Upstream failure",
			url:  targetURL,
			setup: func(m *MockPostSource) {
				m.On("FetchPost", mock.Anything, targetURL).Return(nil, errors.New("connection reset"))
			},
		},
		{
			name:  "Malformed URL",
			url:   "not a post url",
			setup: func(m *MockPostSource) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := new(MockProfileFetcher)
			profiles.On("Fetch", mock.Anything, "gopher", false).Return(history(), nil)
			posts := new(MockPostSource)
			tt.setup(posts)

			res, err := newService(profiles, posts, nil, nil).Predict(context.Background(),
				Request{Handle: "gopher", Content: "Nice", PostType: PostQuote, TargetPostURL: tt.url})
			require.NoError(t, err)
			assert.Nil(t, res.Context)

			want, _ := scoring.Analyze(features.ExtractContent("Nice", "", true), features.ExtractProfile(history()), nil)
			assert.Equal(t, want.Rounded(), res.Scores)
			posts.AssertExpectations(t)
		})
	}
}

func TestPredict_FetchesConcurrently(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)
	meet := func() bool {
		barrier.Done()
		done := make(chan struct{})
		go func() {
			barrier.Wait()
			close(done)
		}()
		select {
		case <-done:
			return true
		case <-time.After(time.Second):
			return false
		}
	}

	var profileMet, postMet bool
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "gopher", false).
		Run(func(mock.Arguments) { profileMet = meet() }).
		Return(history(), nil)
	posts := new(MockPostSource)
	posts.On("FetchPost", mock.Anything, targetURL).
		Run(func(mock.Arguments) { postMet = meet() }).
		Return(bigTarget(), nil)

	s := NewService(profiles, posts, nil, nil, nil, Options{FetchTimeout: 5 * time.Second, Now: func() time.Time { return fixedNow }})
	_, err := s.Predict(context.Background(), Request{Handle: "gopher", Content: "hi", PostType: PostReply, TargetPostURL: targetURL})
	require.NoError(t, err)

	assert.True(t, profileMet, "profile fetch should overlap the target fetch")
	assert.True(t, postMet, "target fetch should overlap the profile fetch")
}

func TestPredict_TargetCache(t *testing.T) {
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "gopher", mock.Anything).Return(history(), nil)
	posts := new(MockPostSource)
	posts.On("FetchPost", mock.Anything, targetURL).Return(bigTarget(), nil).Twice()

	tiers := cache.NewTiers(cache.NewLocal(func() time.Time { return fixedNow }), nil)
	targets := cache.NewTyped[models.Tweet](tiers, "context", 15*time.Minute)
	s := newService(profiles, posts, targets, nil)

	req := Request{Handle: "gopher", Content: "hi", PostType: PostReply, TargetPostURL: targetURL}
	for i := 0; i < 2; i++ {
		res, err := s.Predict(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res.Context)
	}
	posts.AssertNumberOfCalls(t, "FetchPost", 1)

	req.BypassCache = true
	_, err := s.Predict(context.Background(), req)
	require.NoError(t, err)
	posts.AssertNumberOfCalls(t, "FetchPost", 2)
}

func TestPredict_StuckLLMServesRuleTips(t *testing.T) {
	profiles := new(MockProfileFetcher)
	profiles.On("Fetch", mock.Anything, "gopher", false).Return(history(), nil)
	client := new(MockLLM)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded)

	generator := tips.NewGenerator(client, nil, 100*time.Millisecond)
	s := NewService(profiles, new(MockPostSource), nil, generator, nil, Options{
		FetchTimeout: 200 * time.Millisecond,
		Now:          func() time.Time { return fixedNow },
	})

	req := Request{Handle: "gopher", Content: "Hello world", PostType: PostOriginal}
	start := time.Now()
	res, err := s.Predict(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, tips.Rules(features.ExtractContent(req.Content, "", false), tips.DefaultLanguage), res.QuickTips)
	client.AssertExpectations(t)
}

func TestLookupContext(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		target  *models.Tweet
		err     error
		wantErr error
	}{
		{name: "Found", url: targetURL, target: bigTarget()},
		{name: "Outside window", url: targetURL, err: sources.ErrPostNotFound, wantErr: sources.ErrPostNotFound},
		{name: "Upstream failure", url: targetURL, err: errors.New("timeout"), wantErr: ErrTargetUnavailable},
		{name: "Malformed", url: "https://x.com/someone", wantErr: sources.ErrInvalidPostURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := new(MockPostSource)
			if tt.target != nil || tt.err != nil {
				posts.On("FetchPost", mock.Anything, tt.url).Return(tt.target, tt.err)
			}

			report, err := newService(new(MockProfileFetcher), posts, nil, nil).LookupContext(context.Background(), tt.url, false, "en")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1234567890", report.PostID)
			assert.Equal(t, postcontext.Fresh, report.Analysis.Freshness)
		})
	}
}
