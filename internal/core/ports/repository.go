package ports

import (
	"context"

	"github.com/socialstats/engage/internal/core/domain"
)

// EngagementStore is the authoritative counter store. Each mutation runs in a
// single transaction; the uniqueness constraints on the view and like ledgers
// are the only synchronization primitive, so implementations must stay correct
// under cross-process concurrency.
type EngagementStore interface {
	CreatePost(ctx context.Context, post domain.Post) (domain.Post, error)
	GetPost(ctx context.Context, postID int64) (domain.Post, error)
	ListPosts(ctx context.Context, userID int64, page, perPage int) (domain.PostPage, error)

	// RecordView inserts a view ledger entry and increments the counter, or
	// returns the unchanged counter with Recorded=false when the (post, user)
	// pair already has an entry.
	RecordView(ctx context.Context, postID, userID int64) (domain.ViewResult, error)

	// SetLike inserts or flips the like ledger entry, adjusting the counter by
	// +-1 on insert and +-2 on flip. Changed=false on the same-value no-op.
	SetLike(ctx context.Context, postID, userID int64, isLike bool) (domain.LikeResult, error)

	AddComment(ctx context.Context, postID, userID int64, text string) (domain.Comment, error)
	ListComments(ctx context.Context, postID int64, page, perPage int) (domain.CommentPage, error)
}
