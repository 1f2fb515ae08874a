package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/internal/core/ports"
)

// IngestService maps decoded engagement events to analytical rows. A failed
// insert gets exactly one reconnect-and-retry; if that also fails the error
// propagates so the caller leaves the message uncommitted for redelivery.
type IngestService struct {
	store ports.AnalyticsStore
}

func NewIngestService(store ports.AnalyticsStore) *IngestService {
	return &IngestService{store: store}
}

func (s *IngestService) Ingest(ctx context.Context, event domain.EngagementEvent) error {
	switch ev := event.(type) {
	case domain.ViewEvent:
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.store.InsertView(ctx, domain.ViewRow{
				UserID:    ev.UserID,
				PostID:    ev.PostID,
				ViewTime:  ev.ViewTime,
				EventTime: ev.EventedAt,
			})
		})
	case domain.LikeEvent:
		direction := -1
		if ev.IsLike {
			direction = 1
		}
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.store.InsertLike(ctx, domain.LikeRow{
				UserID:    ev.UserID,
				PostID:    ev.PostID,
				Direction: direction,
				LikeTime:  ev.LikeTime,
				EventTime: ev.EventedAt,
			})
		})
	case domain.CommentEvent:
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.store.InsertComment(ctx, domain.CommentRow{
				UserID:      ev.UserID,
				PostID:      ev.PostID,
				CommentID:   ev.CommentID,
				CommentTime: ev.CommentTime,
				EventTime:   ev.EventedAt,
			})
		})
	default:
		return fmt.Errorf("unsupported event type %T", event)
	}
}

func (s *IngestService) withRetry(ctx context.Context, insert func(ctx context.Context) error) error {
	err := insert(ctx)
	if err == nil {
		return nil
	}

	log.Printf("analytics insert failed, reconnecting: %v", err)
	if reconnectErr := s.store.Reconnect(ctx); reconnectErr != nil {
		return fmt.Errorf("reconnect after insert failure: %w (insert: %v)", reconnectErr, err)
	}
	if retryErr := insert(ctx); retryErr != nil {
		return fmt.Errorf("insert retry: %w", retryErr)
	}
	return nil
}
