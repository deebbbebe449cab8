package sources

import (
	"context"
	"errors"

	"github.com/xeo-app/xeo-backend/internal/models"
)

var (
	// ErrPostNotFound means the target post could not be located within the
	// lookup window of its author's history.
	ErrPostNotFound = errors.New("post not found")
	// ErrInvalidPostURL means the URL is not an x.com/twitter.com status link.
	ErrInvalidPostURL = errors.New("invalid post URL")
)

// Source is the common surface of every upstream data provider
type Source interface {
	GetName() string
	IsEnabled() bool
}

// ProfileSource returns a handle's most recent posts with engagement counts
type ProfileSource interface {
	Source
	FetchProfile(ctx context.Context, handle string, count int) (*models.Profile, error)
}

// PostSource resolves a single post from its URL
type PostSource interface {
	Source
	FetchPost(ctx context.Context, postURL string) (*models.Tweet, error)
}
