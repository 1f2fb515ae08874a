package domain

import "time"

// Analytical rows are immutable: one row per ingested event, aggregated at
// query time. Duplicate rows from redelivered messages are accepted and make
// the analytical counters an approximation of the authoritative ones.

type ViewRow struct {
	UserID    int64
	PostID    int64
	ViewTime  time.Time
	EventTime time.Time
}

// LikeRow stores the signed direction of a like change (+1 like, -1 dislike),
// never a running total.
type LikeRow struct {
	UserID    int64
	PostID    int64
	Direction int
	LikeTime  time.Time
	EventTime time.Time
}

type CommentRow struct {
	UserID      int64
	PostID      int64
	CommentID   int64
	CommentTime time.Time
	EventTime   time.Time
}
