package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/internal/core/ports"
)

// EngagementService runs the mutation side of the pipeline: counter mutations
// against the authoritative store, followed by best-effort event emission.
// Publication failures are logged and swallowed; the committed mutation is
// never rolled back because of them.
type EngagementService struct {
	store     ports.EngagementStore
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewEngagementService(store ports.EngagementStore, publisher ports.EventPublisher) *EngagementService {
	return &EngagementService{store: store, publisher: publisher, now: time.Now}
}

func (s *EngagementService) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	if err := post.Validate(); err != nil {
		return domain.Post{}, err
	}
	return s.store.CreatePost(ctx, post)
}

func (s *EngagementService) GetPost(ctx context.Context, postID, userID int64) (domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if !post.VisibleTo(userID) {
		return domain.Post{}, domain.ErrPrivatePost
	}
	return post, nil
}

func (s *EngagementService) ListPosts(ctx context.Context, userID int64, page, perPage int) (domain.PostPage, error) {
	page, perPage = clampPage(page, perPage)
	return s.store.ListPosts(ctx, userID, page, perPage)
}

func (s *EngagementService) RecordView(ctx context.Context, postID, userID int64) (domain.ViewResult, error) {
	result, err := s.store.RecordView(ctx, postID, userID)
	if err != nil {
		return domain.ViewResult{}, err
	}

	if result.Recorded {
		s.emit(ctx, domain.ViewEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			PostID:    postID,
			ViewTime:  s.now().UTC(),
			EventedAt: s.now().UTC(),
		})
	}
	return result, nil
}

func (s *EngagementService) SetLike(ctx context.Context, postID, userID int64, isLike bool) (domain.LikeResult, error) {
	result, err := s.store.SetLike(ctx, postID, userID, isLike)
	if err != nil {
		return domain.LikeResult{}, err
	}

	if result.Changed {
		s.emit(ctx, domain.LikeEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			PostID:    postID,
			IsLike:    isLike,
			LikeTime:  s.now().UTC(),
			EventedAt: s.now().UTC(),
		})
	}
	return result, nil
}

func (s *EngagementService) AddComment(ctx context.Context, postID, userID int64, text string) (domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Comment{}, domain.ErrEmptyComment
	}

	comment, err := s.store.AddComment(ctx, postID, userID, text)
	if err != nil {
		return domain.Comment{}, err
	}

	s.emit(ctx, domain.CommentEvent{
		EventID:     uuid.NewString(),
		UserID:      userID,
		PostID:      postID,
		CommentID:   comment.ID,
		CommentTime: comment.CreatedAt.UTC(),
		EventedAt:   s.now().UTC(),
	})
	return comment, nil
}

func (s *EngagementService) ListComments(ctx context.Context, postID int64, page, perPage int) (domain.CommentPage, error) {
	page, perPage = clampPage(page, perPage)
	return s.store.ListComments(ctx, postID, page, perPage)
}

func (s *EngagementService) emit(ctx context.Context, event domain.EngagementEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s key=%s: %v", event.Topic(), event.Key(), err)
	}
}

func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
