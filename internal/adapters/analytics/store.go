// Package analytics implements the append-only analytical projection on its
// own sqlite database. It never shares a connection with the counter store;
// the event stream is the only thing linking the two.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/socialstats/engage/internal/adapters/sqlite/gormsqlite"
	"github.com/socialstats/engage/internal/core/domain"
)

// storeTimeFormat is how event times are persisted: UTC, second precision,
// lexicographically ordered so range scans and date() bucketing stay cheap.
const storeTimeFormat = "2006-01-02 15:04:05"

type viewEventModel struct {
	UserID    int64  `gorm:"column:user_id;not null"`
	PostID    int64  `gorm:"column:post_id;not null"`
	ViewTime  string `gorm:"column:view_time;not null"`
	EventTime string `gorm:"column:event_time;not null"`
}

func (viewEventModel) TableName() string { return "post_view_events" }

type likeEventModel struct {
	UserID    int64  `gorm:"column:user_id;not null"`
	PostID    int64  `gorm:"column:post_id;not null"`
	Direction int    `gorm:"column:direction;not null"`
	LikeTime  string `gorm:"column:like_time;not null"`
	EventTime string `gorm:"column:event_time;not null"`
}

func (likeEventModel) TableName() string { return "post_like_events" }

type commentEventModel struct {
	UserID      int64  `gorm:"column:user_id;not null"`
	PostID      int64  `gorm:"column:post_id;not null"`
	CommentID   int64  `gorm:"column:comment_id;not null"`
	CommentTime string `gorm:"column:comment_time;not null"`
	EventTime   string `gorm:"column:event_time;not null"`
}

func (commentEventModel) TableName() string { return "post_comment_events" }

type Store struct {
	db *gormsqlite.DB
}

func NewStore(db *gormsqlite.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertView(ctx context.Context, row domain.ViewRow) error {
	model := viewEventModel{
		UserID:    row.UserID,
		PostID:    row.PostID,
		ViewTime:  formatStoreTime(row.ViewTime),
		EventTime: formatStoreTime(row.EventTime),
	}
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert view event: %w", err)
	}
	return nil
}

func (s *Store) InsertLike(ctx context.Context, row domain.LikeRow) error {
	model := likeEventModel{
		UserID:    row.UserID,
		PostID:    row.PostID,
		Direction: row.Direction,
		LikeTime:  formatStoreTime(row.LikeTime),
		EventTime: formatStoreTime(row.EventTime),
	}
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert like event: %w", err)
	}
	return nil
}

func (s *Store) InsertComment(ctx context.Context, row domain.CommentRow) error {
	model := commentEventModel{
		UserID:      row.UserID,
		PostID:      row.PostID,
		CommentID:   row.CommentID,
		CommentTime: formatStoreTime(row.CommentTime),
		EventTime:   formatStoreTime(row.EventTime),
	}
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert comment event: %w", err)
	}
	return nil
}

// Reconnect pings the writer so a stale connection gets replaced before the
// ingest pipeline's single retry.
func (s *Store) Reconnect(ctx context.Context) error {
	sqlDB, err := s.db.WriteSQLDB()
	if err != nil {
		return fmt.Errorf("resolve writer: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping analytics store: %w", err)
	}
	return nil
}

func (s *Store) PostStats(ctx context.Context, postID int64) (domain.PostStats, error) {
	stats := domain.PostStats{PostID: postID}

	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Raw(
			"SELECT COUNT(DISTINCT user_id) FROM post_view_events WHERE post_id = ?", postID,
		).Scan(&stats.ViewsCount).Error; err != nil {
			return fmt.Errorf("count views: %w", err)
		}
		if err := tx.Raw(
			"SELECT COALESCE(SUM(direction), 0) FROM post_like_events WHERE post_id = ?", postID,
		).Scan(&stats.LikesCount).Error; err != nil {
			return fmt.Errorf("sum likes: %w", err)
		}
		if err := tx.Raw(
			"SELECT COUNT(DISTINCT comment_id) FROM post_comment_events WHERE post_id = ?", postID,
		).Scan(&stats.CommentsCount).Error; err != nil {
			return fmt.Errorf("count comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PostStats{}, err
	}
	return stats, nil
}

func (s *Store) Dynamics(ctx context.Context, postID int64, metric domain.Metric, dates domain.DateRange) ([]domain.DailyCount, error) {
	table, timeColumn, aggregate, err := metricQueryParts(metric)
	if err != nil {
		return nil, err
	}

	var points []domain.DailyCount
	query := fmt.Sprintf(
		"SELECT date(%s) AS date, %s AS count FROM %s WHERE post_id = ? AND date(%s) >= ? AND date(%s) <= ? GROUP BY date ORDER BY date ASC",
		timeColumn, aggregate, table, timeColumn, timeColumn,
	)
	err = s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Raw(query, postID, dates.Start, dates.End).Scan(&points).Error
	})
	if err != nil {
		return nil, fmt.Errorf("query %s dynamics: %w", metric, err)
	}
	return points, nil
}

func (s *Store) TopPosts(ctx context.Context, metric domain.Metric, limit int) ([]domain.TopPost, error) {
	table, _, aggregate, err := metricQueryParts(metric)
	if err != nil {
		return nil, err
	}

	var entries []domain.TopPost
	query := fmt.Sprintf(
		"SELECT post_id, %s AS count FROM %s GROUP BY post_id ORDER BY count DESC LIMIT ?",
		aggregate, table,
	)
	err = s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Raw(query, limit).Scan(&entries).Error
	})
	if err != nil {
		return nil, fmt.Errorf("query top posts by %s: %w", metric, err)
	}
	return entries, nil
}

func (s *Store) TopUsers(ctx context.Context, metric domain.Metric, limit int) ([]domain.TopUser, error) {
	table, err := userMetricQueryParts(metric)
	if err != nil {
		return nil, err
	}

	var entries []domain.TopUser
	query := fmt.Sprintf(
		"SELECT user_id, %s AS count FROM %s GROUP BY user_id ORDER BY count DESC LIMIT ?",
		table.aggregate, table.name,
	)
	err = s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Raw(query, limit).Scan(&entries).Error
	})
	if err != nil {
		return nil, fmt.Errorf("query top users by %s: %w", metric, err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// metricQueryParts maps a metric onto its table, time column and the per-post
// aggregate expression shared by stats, dynamics and top queries.
func metricQueryParts(metric domain.Metric) (table, timeColumn, aggregate string, err error) {
	switch metric {
	case domain.MetricViews:
		return "post_view_events", "view_time", "COUNT(DISTINCT user_id)", nil
	case domain.MetricLikes:
		return "post_like_events", "like_time", "COALESCE(SUM(direction), 0)", nil
	case domain.MetricComments:
		return "post_comment_events", "comment_time", "COUNT(DISTINCT comment_id)", nil
	default:
		return "", "", "", domain.ErrInvalidMetric
	}
}

type userMetricTable struct {
	name      string
	aggregate string
}

// userMetricQueryParts differs from metricQueryParts only for views: a user's
// view activity is counted per post viewed, not per distinct user.
func userMetricQueryParts(metric domain.Metric) (userMetricTable, error) {
	switch metric {
	case domain.MetricViews:
		return userMetricTable{name: "post_view_events", aggregate: "COUNT(DISTINCT post_id)"}, nil
	case domain.MetricLikes:
		return userMetricTable{name: "post_like_events", aggregate: "COALESCE(SUM(direction), 0)"}, nil
	case domain.MetricComments:
		return userMetricTable{name: "post_comment_events", aggregate: "COUNT(DISTINCT comment_id)"}, nil
	default:
		return userMetricTable{}, domain.ErrInvalidMetric
	}
}

func formatStoreTime(t time.Time) string {
	return t.UTC().Format(storeTimeFormat)
}
