package ports

import (
	"context"

	"github.com/socialstats/engage/internal/core/domain"
)

// AnalyticsStore is the append-only analytical projection. Inserts are one row
// per event; reads aggregate at query time.
type AnalyticsStore interface {
	InsertView(ctx context.Context, row domain.ViewRow) error
	InsertLike(ctx context.Context, row domain.LikeRow) error
	InsertComment(ctx context.Context, row domain.CommentRow) error

	// Reconnect resets the store connection after a write failure. The ingest
	// pipeline calls it once before retrying a failed insert.
	Reconnect(ctx context.Context) error

	PostStats(ctx context.Context, postID int64) (domain.PostStats, error)
	Dynamics(ctx context.Context, postID int64, metric domain.Metric, dates domain.DateRange) ([]domain.DailyCount, error)
	TopPosts(ctx context.Context, metric domain.Metric, limit int) ([]domain.TopPost, error)
	TopUsers(ctx context.Context, metric domain.Metric, limit int) ([]domain.TopUser, error)
}
