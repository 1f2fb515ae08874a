package analytics

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/socialstats/engage/internal/adapters/sqlite/gormsqlite"
	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "analytics.sqlite")
	db, err := gormsqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Analytics(context.Background(), sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func at(day, hour int) time.Time {
	return time.Date(2026, 6, day, hour, 0, 0, 0, time.UTC)
}

func seedViews(t *testing.T, store *Store, rows ...domain.ViewRow) {
	t.Helper()
	for _, row := range rows {
		if err := store.InsertView(context.Background(), row); err != nil {
			t.Fatalf("seed view: %v", err)
		}
	}
}

func TestPostStatsAggregates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Two distinct viewers, one of them delivered twice.
	seedViews(t, store,
		domain.ViewRow{UserID: 1, PostID: 7, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 1, PostID: 7, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 2, PostID: 7, ViewTime: at(1, 10), EventTime: at(1, 10)},
		domain.ViewRow{UserID: 9, PostID: 8, ViewTime: at(1, 10), EventTime: at(1, 10)},
	)

	likes := []domain.LikeRow{
		{UserID: 1, PostID: 7, Direction: 1, LikeTime: at(1, 11), EventTime: at(1, 11)},
		{UserID: 2, PostID: 7, Direction: -1, LikeTime: at(1, 11), EventTime: at(1, 11)},
		{UserID: 3, PostID: 7, Direction: 1, LikeTime: at(1, 12), EventTime: at(1, 12)},
	}
	for _, row := range likes {
		if err := store.InsertLike(ctx, row); err != nil {
			t.Fatalf("seed like: %v", err)
		}
	}

	if err := store.InsertComment(ctx, domain.CommentRow{UserID: 1, PostID: 7, CommentID: 1, CommentTime: at(1, 13), EventTime: at(1, 13)}); err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	stats, err := store.PostStats(ctx, 7)
	if err != nil {
		t.Fatalf("post stats: %v", err)
	}
	if stats.ViewsCount != 2 {
		t.Errorf("views = %d, want 2 distinct users despite the duplicate row", stats.ViewsCount)
	}
	if stats.LikesCount != 1 {
		t.Errorf("likes = %d, want 1 (+1 -1 +1)", stats.LikesCount)
	}
	if stats.CommentsCount != 1 {
		t.Errorf("comments = %d, want 1", stats.CommentsCount)
	}
}

func TestPostStatsEmptyPost(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.PostStats(context.Background(), 404)
	if err != nil {
		t.Fatalf("post stats: %v", err)
	}
	if stats.ViewsCount != 0 || stats.LikesCount != 0 || stats.CommentsCount != 0 {
		t.Fatalf("stats for unseen post = %+v, want zeros", stats)
	}
}

func TestDynamicsBucketsByDayAndSkipsEmptyDays(t *testing.T) {
	store := newTestStore(t)

	seedViews(t, store,
		domain.ViewRow{UserID: 1, PostID: 7, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 2, PostID: 7, ViewTime: at(1, 20), EventTime: at(1, 20)},
		domain.ViewRow{UserID: 3, PostID: 7, ViewTime: at(3, 9), EventTime: at(3, 9)},
		domain.ViewRow{UserID: 4, PostID: 7, ViewTime: at(9, 9), EventTime: at(9, 9)},
		domain.ViewRow{UserID: 5, PostID: 8, ViewTime: at(1, 9), EventTime: at(1, 9)},
	)

	points, err := store.Dynamics(context.Background(), 7, domain.MetricViews, domain.DateRange{Start: "2026-06-01", End: "2026-06-05"})
	if err != nil {
		t.Fatalf("dynamics: %v", err)
	}

	want := []domain.DailyCount{
		{Date: "2026-06-01", Count: 2},
		{Date: "2026-06-03", Count: 1},
	}
	if len(points) != len(want) {
		t.Fatalf("points = %+v, want %+v", points, want)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestDynamicsLikesSumDirections(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	likes := []domain.LikeRow{
		{UserID: 1, PostID: 7, Direction: 1, LikeTime: at(2, 9), EventTime: at(2, 9)},
		{UserID: 2, PostID: 7, Direction: 1, LikeTime: at(2, 10), EventTime: at(2, 10)},
		{UserID: 3, PostID: 7, Direction: -1, LikeTime: at(2, 11), EventTime: at(2, 11)},
	}
	for _, row := range likes {
		if err := store.InsertLike(ctx, row); err != nil {
			t.Fatalf("seed like: %v", err)
		}
	}

	points, err := store.Dynamics(ctx, 7, domain.MetricLikes, domain.DateRange{Start: "2026-06-02", End: "2026-06-02"})
	if err != nil {
		t.Fatalf("dynamics: %v", err)
	}
	if len(points) != 1 || points[0].Count != 1 {
		t.Fatalf("points = %+v, want one day with balance 1", points)
	}
}

func TestDynamicsUnknownMetric(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Dynamics(context.Background(), 7, "reposts", domain.DateRange{Start: "2026-06-01", End: "2026-06-02"})
	if !errors.Is(err, domain.ErrInvalidMetric) {
		t.Fatalf("err = %v, want ErrInvalidMetric", err)
	}
}

func TestTopPostsOrdersAndLimits(t *testing.T) {
	store := newTestStore(t)

	// post 2 gets five viewers, post 1 two, post 3 one.
	var rows []domain.ViewRow
	for user := int64(1); user <= 5; user++ {
		rows = append(rows, domain.ViewRow{UserID: user, PostID: 2, ViewTime: at(1, 9), EventTime: at(1, 9)})
	}
	rows = append(rows,
		domain.ViewRow{UserID: 1, PostID: 1, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 2, PostID: 1, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 1, PostID: 3, ViewTime: at(1, 9), EventTime: at(1, 9)},
	)
	seedViews(t, store, rows...)

	top, err := store.TopPosts(context.Background(), domain.MetricViews, 2)
	if err != nil {
		t.Fatalf("top posts: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("top = %+v, want 2 entries", top)
	}
	if top[0].PostID != 2 || top[0].Count != 5 {
		t.Errorf("top[0] = %+v, want post 2 with 5", top[0])
	}
	if top[1].PostID != 1 || top[1].Count != 2 {
		t.Errorf("top[1] = %+v, want post 1 with 2", top[1])
	}
}

func TestTopUsersByViewsCountsPosts(t *testing.T) {
	store := newTestStore(t)

	// User 1 viewed three posts, one of them twice; user 2 viewed one.
	seedViews(t, store,
		domain.ViewRow{UserID: 1, PostID: 1, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 1, PostID: 2, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 1, PostID: 2, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 1, PostID: 3, ViewTime: at(1, 9), EventTime: at(1, 9)},
		domain.ViewRow{UserID: 2, PostID: 1, ViewTime: at(1, 9), EventTime: at(1, 9)},
	)

	top, err := store.TopUsers(context.Background(), domain.MetricViews, 10)
	if err != nil {
		t.Fatalf("top users: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("top = %+v, want 2 entries", top)
	}
	if top[0].UserID != 1 || top[0].Count != 3 {
		t.Errorf("top[0] = %+v, want user 1 with 3 distinct posts", top[0])
	}
}

func TestReconnectOnHealthyStore(t *testing.T) {
	store := newTestStore(t)
	if err := store.Reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
}
