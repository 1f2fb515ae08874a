package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/socialstats/engage/internal/adapters/sqlite/gormsqlite"
	"github.com/socialstats/engage/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null"`
	CreatorID   int64     `gorm:"column:creator_id;not null"`
	IsPrivate   bool      `gorm:"column:is_private;not null"`
	ViewsCount  int64     `gorm:"column:views_count;not null"`
	LikesCount  int64     `gorm:"column:likes_count;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (postModel) TableName() string { return "posts" }

type viewLedgerModel struct {
	PostID   int64     `gorm:"column:post_id;primaryKey"`
	UserID   int64     `gorm:"column:user_id;primaryKey"`
	ViewedAt time.Time `gorm:"column:viewed_at;not null"`
}

func (viewLedgerModel) TableName() string { return "post_views" }

type likeLedgerModel struct {
	PostID    int64     `gorm:"column:post_id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	IsLike    bool      `gorm:"column:is_like;not null"`
	LikedAt   time.Time `gorm:"column:liked_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (likeLedgerModel) TableName() string { return "post_likes" }

type commentModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PostID    int64     `gorm:"column:post_id;not null"`
	UserID    int64     `gorm:"column:user_id;not null"`
	Text      string    `gorm:"column:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (commentModel) TableName() string { return "comments" }

// PostRepository is the authoritative counter store. The primary keys on the
// post_views and post_likes ledgers are the only synchronization primitive:
// a losing concurrent insert resolves to the no-op path instead of an error.
type PostRepository struct {
	db *gormsqlite.DB
}

func NewPostRepository(db *gormsqlite.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	now := time.Now().UTC()
	model := postModel{
		Title:       post.Title,
		Description: post.Description,
		CreatorID:   post.CreatorID,
		IsPrivate:   post.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}
	return toPost(model), nil
}

func (r *PostRepository) GetPost(ctx context.Context, postID int64) (domain.Post, error) {
	var model postModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", postID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	return toPost(model), nil
}

func (r *PostRepository) ListPosts(ctx context.Context, userID int64, page, perPage int) (domain.PostPage, error) {
	var models []postModel
	var total int64

	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&postModel{}).Where("is_private = ? OR creator_id = ?", false, userID)
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.
			Order("created_at DESC, id DESC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&models).Error
	})
	if err != nil {
		return domain.PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]domain.Post, 0, len(models))
	for _, model := range models {
		posts = append(posts, toPost(model))
	}
	return domain.PostPage{Posts: posts, Total: total, Page: page, PerPage: perPage}, nil
}

func (r *PostRepository) RecordView(ctx context.Context, postID, userID int64) (domain.ViewResult, error) {
	var result domain.ViewResult

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var post postModel
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load post: %w", err)
		}

		entry := viewLedgerModel{PostID: postID, UserID: userID, ViewedAt: time.Now().UTC()}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return fmt.Errorf("insert view ledger: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Ledger entry already there, possibly from a concurrent call.
			result = domain.ViewResult{Recorded: false, ViewsCount: post.ViewsCount}
			return nil
		}

		if err := tx.Model(&postModel{}).Where("id = ?", postID).
			UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
			return fmt.Errorf("increment views_count: %w", err)
		}

		result = domain.ViewResult{Recorded: true, ViewsCount: post.ViewsCount + 1}
		return nil
	})
	if err != nil {
		return domain.ViewResult{}, err
	}
	return result, nil
}

func (r *PostRepository) SetLike(ctx context.Context, postID, userID int64, isLike bool) (domain.LikeResult, error) {
	var result domain.LikeResult

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var post postModel
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load post: %w", err)
		}

		now := time.Now().UTC()
		entry := likeLedgerModel{PostID: postID, UserID: userID, IsLike: isLike, LikedAt: now, UpdatedAt: now}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return fmt.Errorf("insert like ledger: %w", res.Error)
		}

		if res.RowsAffected > 0 {
			delta := int64(-1)
			if isLike {
				delta = 1
			}
			if err := adjustLikes(tx.DB, postID, delta); err != nil {
				return err
			}
			result = domain.LikeResult{Changed: true, LikesCount: post.LikesCount + delta}
			return nil
		}

		// Lost the insert: an entry exists, from this user's past action or a
		// concurrent call. Re-read it and decide between no-op and flip.
		var existing likeLedgerModel
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error; err != nil {
			return fmt.Errorf("load like ledger: %w", err)
		}

		if existing.IsLike == isLike {
			result = domain.LikeResult{Changed: false, LikesCount: post.LikesCount}
			return nil
		}

		if err := tx.Model(&likeLedgerModel{}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Updates(map[string]any{"is_like": isLike, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("flip like ledger: %w", err)
		}

		// Reverse the prior contribution and apply the new one.
		delta := int64(-2)
		if isLike {
			delta = 2
		}
		if err := adjustLikes(tx.DB, postID, delta); err != nil {
			return err
		}
		result = domain.LikeResult{Changed: true, LikesCount: post.LikesCount + delta}
		return nil
	})
	if err != nil {
		return domain.LikeResult{}, err
	}
	return result, nil
}

func (r *PostRepository) AddComment(ctx context.Context, postID, userID int64, text string) (domain.Comment, error) {
	var model commentModel

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var post postModel
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load post: %w", err)
		}

		model = commentModel{PostID: postID, UserID: userID, Text: text, CreatedAt: time.Now().UTC()}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Comment{}, err
	}

	return domain.Comment{
		ID:        model.ID,
		PostID:    model.PostID,
		UserID:    model.UserID,
		Text:      model.Text,
		CreatedAt: model.CreatedAt,
	}, nil
}

func (r *PostRepository) ListComments(ctx context.Context, postID int64, page, perPage int) (domain.CommentPage, error) {
	var models []commentModel
	var total int64

	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		var post postModel
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load post: %w", err)
		}

		query := tx.Model(&commentModel{}).Where("post_id = ?", postID)
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.
			Order("created_at DESC, id DESC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&models).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CommentPage{}, err
		}
		return domain.CommentPage{}, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(models))
	for _, model := range models {
		comments = append(comments, domain.Comment{
			ID:        model.ID,
			PostID:    model.PostID,
			UserID:    model.UserID,
			Text:      model.Text,
			CreatedAt: model.CreatedAt,
		})
	}
	return domain.CommentPage{Comments: comments, Total: total, Page: page, PerPage: perPage}, nil
}

func adjustLikes(tx *gorm.DB, postID, delta int64) error {
	if err := tx.Model(&postModel{}).Where("id = ?", postID).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("adjust likes_count: %w", err)
	}
	return nil
}

func toPost(model postModel) domain.Post {
	return domain.Post{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		CreatorID:   model.CreatorID,
		IsPrivate:   model.IsPrivate,
		ViewsCount:  model.ViewsCount,
		LikesCount:  model.LikesCount,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
