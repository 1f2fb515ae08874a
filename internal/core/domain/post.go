package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidPost      = errors.New("invalid post")
	ErrEmptyComment     = errors.New("comment text must not be empty")
	ErrInvalidMetric    = errors.New("invalid metric")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrPrivatePost      = errors.New("post is private")
)

type Post struct {
	ID          int64
	Title       string
	Description string
	CreatorID   int64
	IsPrivate   bool
	ViewsCount  int64
	LikesCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Post) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidPost)
	}
	if p.CreatorID <= 0 {
		return fmt.Errorf("%w: creator_id must be positive", ErrInvalidPost)
	}
	return nil
}

// VisibleTo reports whether userID may read the post. Private posts are
// readable only by their creator.
func (p Post) VisibleTo(userID int64) bool {
	return !p.IsPrivate || p.CreatorID == userID
}

type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Text      string
	CreatedAt time.Time
}

// ViewResult is the outcome of a view mutation. Recorded is false when the
// (post, user) pair already had a ledger entry and the call was a no-op.
type ViewResult struct {
	Recorded   bool
	ViewsCount int64
}

// LikeResult is the outcome of a like/dislike mutation. Changed is false on
// the idempotent path (same value submitted twice).
type LikeResult struct {
	Changed    bool
	LikesCount int64
}

type PostPage struct {
	Posts   []Post
	Total   int64
	Page    int
	PerPage int
}

type CommentPage struct {
	Comments []Comment
	Total    int64
	Page     int
	PerPage  int
}
