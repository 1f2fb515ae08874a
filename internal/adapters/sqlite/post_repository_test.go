package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/socialstats/engage/internal/adapters/sqlite/gormsqlite"
	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/migrations"
)

func newTestRepository(t *testing.T) *PostRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "counters.sqlite")
	db, err := gormsqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Counters(context.Background(), sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPostRepository(db)
}

func seedPost(t *testing.T, repo *PostRepository) domain.Post {
	t.Helper()
	post, err := repo.CreatePost(context.Background(), domain.Post{
		Title:       "first",
		Description: "body",
		CreatorID:   10,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post
}

func TestRecordViewOncePerUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	post := seedPost(t, repo)

	first, err := repo.RecordView(ctx, post.ID, 100)
	if err != nil {
		t.Fatalf("first view: %v", err)
	}
	if !first.Recorded || first.ViewsCount != 1 {
		t.Fatalf("first view = %+v, want recorded with count 1", first)
	}

	second, err := repo.RecordView(ctx, post.ID, 100)
	if err != nil {
		t.Fatalf("second view: %v", err)
	}
	if second.Recorded || second.ViewsCount != 1 {
		t.Fatalf("second view = %+v, want no-op with count 1", second)
	}

	other, err := repo.RecordView(ctx, post.ID, 200)
	if err != nil {
		t.Fatalf("other user view: %v", err)
	}
	if !other.Recorded || other.ViewsCount != 2 {
		t.Fatalf("other user view = %+v, want recorded with count 2", other)
	}

	stored, err := repo.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.ViewsCount != 2 {
		t.Fatalf("persisted views = %d, want 2", stored.ViewsCount)
	}
}

func TestRecordViewMissingPost(t *testing.T) {
	repo := newTestRepository(t)
	if _, err := repo.RecordView(context.Background(), 404, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetLikeFlipAppliesDoubleDelta(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	post := seedPost(t, repo)

	like, err := repo.SetLike(ctx, post.ID, 100, true)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !like.Changed || like.LikesCount != 1 {
		t.Fatalf("like = %+v, want changed with count 1", like)
	}

	repeat, err := repo.SetLike(ctx, post.ID, 100, true)
	if err != nil {
		t.Fatalf("repeat like: %v", err)
	}
	if repeat.Changed || repeat.LikesCount != 1 {
		t.Fatalf("repeat like = %+v, want no-op with count 1", repeat)
	}

	flip, err := repo.SetLike(ctx, post.ID, 100, false)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if !flip.Changed || flip.LikesCount != -1 {
		t.Fatalf("flip = %+v, want changed with count -1", flip)
	}

	stored, err := repo.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.LikesCount != -1 {
		t.Fatalf("persisted likes = %d, want -1", stored.LikesCount)
	}
}

func TestSetLikeTwoUsersBalance(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	post := seedPost(t, repo)

	if _, err := repo.SetLike(ctx, post.ID, 100, false); err != nil {
		t.Fatalf("user A dislike: %v", err)
	}
	result, err := repo.SetLike(ctx, post.ID, 200, true)
	if err != nil {
		t.Fatalf("user B like: %v", err)
	}
	if result.LikesCount != 0 {
		t.Fatalf("balanced likes = %d, want 0", result.LikesCount)
	}
}

func TestCommentsAccumulatePerCall(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	post := seedPost(t, repo)

	first, err := repo.AddComment(ctx, post.ID, 100, "hello")
	if err != nil {
		t.Fatalf("first comment: %v", err)
	}
	second, err := repo.AddComment(ctx, post.ID, 100, "hello")
	if err != nil {
		t.Fatalf("second comment: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("identical comment ids %d, repeated comments must both persist", first.ID)
	}

	page, err := repo.ListComments(ctx, post.ID, 1, 10)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if page.Total != 2 || len(page.Comments) != 2 {
		t.Fatalf("comments page = %+v, want 2 entries", page)
	}
}

func TestListPostsHidesForeignPrivate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if _, err := repo.CreatePost(ctx, domain.Post{Title: "public", Description: "d", CreatorID: 1}); err != nil {
		t.Fatalf("create public: %v", err)
	}
	if _, err := repo.CreatePost(ctx, domain.Post{Title: "secret", Description: "d", CreatorID: 1, IsPrivate: true}); err != nil {
		t.Fatalf("create private: %v", err)
	}

	stranger, err := repo.ListPosts(ctx, 99, 1, 10)
	if err != nil {
		t.Fatalf("list as stranger: %v", err)
	}
	if stranger.Total != 1 {
		t.Fatalf("stranger sees %d posts, want 1", stranger.Total)
	}

	owner, err := repo.ListPosts(ctx, 1, 1, 10)
	if err != nil {
		t.Fatalf("list as owner: %v", err)
	}
	if owner.Total != 2 {
		t.Fatalf("owner sees %d posts, want 2", owner.Total)
	}
}

func TestCountersMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "migrate.sqlite")
	db, err := gormsqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Counters(ctx, sqlDB); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := migrations.Counters(ctx, sqlDB); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
