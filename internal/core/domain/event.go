package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	TopicPostViews    = "post-views"
	TopicPostLikes    = "post-likes"
	TopicPostComments = "post-comments"
)

// EventTimeFormat is the ISO-8601 wire format used for all event timestamps.
const EventTimeFormat = time.RFC3339

// EngagementEvent is the only contract between the mutation side and the
// ingestion consumer. Each action kind is its own variant; nothing else may
// appear on the action topics.
type EngagementEvent interface {
	Topic() string
	// Key is the broker partition key. All events for the same (user, post)
	// pair share a key, so they stay ordered relative to each other.
	Key() string
	Envelope() ([]byte, error)
}

type ViewEvent struct {
	EventID   string
	UserID    int64
	PostID    int64
	ViewTime  time.Time
	EventedAt time.Time
}

func (e ViewEvent) Topic() string { return TopicPostViews }

func (e ViewEvent) Key() string { return pairKey(e.UserID, e.PostID) }

func (e ViewEvent) Envelope() ([]byte, error) {
	return json.Marshal(viewEnvelope{
		EventID:   e.EventID,
		UserID:    e.UserID,
		PostID:    e.PostID,
		ViewTime:  e.ViewTime.UTC().Format(EventTimeFormat),
		EventTime: e.EventedAt.UTC().Format(EventTimeFormat),
	})
}

type LikeEvent struct {
	EventID   string
	UserID    int64
	PostID    int64
	IsLike    bool
	LikeTime  time.Time
	EventedAt time.Time
}

func (e LikeEvent) Topic() string { return TopicPostLikes }

func (e LikeEvent) Key() string { return pairKey(e.UserID, e.PostID) }

func (e LikeEvent) Envelope() ([]byte, error) {
	return json.Marshal(likeEnvelope{
		EventID:   e.EventID,
		UserID:    e.UserID,
		PostID:    e.PostID,
		IsLike:    e.IsLike,
		LikeTime:  e.LikeTime.UTC().Format(EventTimeFormat),
		EventTime: e.EventedAt.UTC().Format(EventTimeFormat),
	})
}

type CommentEvent struct {
	EventID     string
	UserID      int64
	PostID      int64
	CommentID   int64
	CommentTime time.Time
	EventedAt   time.Time
}

func (e CommentEvent) Topic() string { return TopicPostComments }

func (e CommentEvent) Key() string {
	return pairKey(e.UserID, e.PostID) + "_" + strconv.FormatInt(e.CommentID, 10)
}

func (e CommentEvent) Envelope() ([]byte, error) {
	return json.Marshal(commentEnvelope{
		EventID:     e.EventID,
		UserID:      e.UserID,
		PostID:      e.PostID,
		CommentID:   e.CommentID,
		CommentTime: e.CommentTime.UTC().Format(EventTimeFormat),
		EventTime:   e.EventedAt.UTC().Format(EventTimeFormat),
	})
}

type viewEnvelope struct {
	EventID   string `json:"event_id,omitempty"`
	UserID    int64  `json:"user_id"`
	PostID    int64  `json:"post_id"`
	ViewTime  string `json:"view_time"`
	EventTime string `json:"event_time"`
}

type likeEnvelope struct {
	EventID   string `json:"event_id,omitempty"`
	UserID    int64  `json:"user_id"`
	PostID    int64  `json:"post_id"`
	IsLike    bool   `json:"is_like"`
	LikeTime  string `json:"like_time"`
	EventTime string `json:"event_time"`
}

type commentEnvelope struct {
	EventID     string `json:"event_id,omitempty"`
	UserID      int64  `json:"user_id"`
	PostID      int64  `json:"post_id"`
	CommentID   int64  `json:"comment_id"`
	CommentTime string `json:"comment_time"`
	EventTime   string `json:"event_time"`
}

// DecodeEvent parses an envelope read from topic back into its variant.
func DecodeEvent(topic string, payload []byte) (EngagementEvent, error) {
	switch topic {
	case TopicPostViews:
		var env viewEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, fmt.Errorf("decode view envelope: %w", err)
		}
		viewTime, err := parseEventTime(env.ViewTime)
		if err != nil {
			return nil, fmt.Errorf("parse view_time: %w", err)
		}
		eventTime, err := parseEventTime(env.EventTime)
		if err != nil {
			return nil, fmt.Errorf("parse event_time: %w", err)
		}
		return ViewEvent{
			EventID:   env.EventID,
			UserID:    env.UserID,
			PostID:    env.PostID,
			ViewTime:  viewTime,
			EventedAt: eventTime,
		}, nil
	case TopicPostLikes:
		var env likeEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, fmt.Errorf("decode like envelope: %w", err)
		}
		likeTime, err := parseEventTime(env.LikeTime)
		if err != nil {
			return nil, fmt.Errorf("parse like_time: %w", err)
		}
		eventTime, err := parseEventTime(env.EventTime)
		if err != nil {
			return nil, fmt.Errorf("parse event_time: %w", err)
		}
		return LikeEvent{
			EventID:   env.EventID,
			UserID:    env.UserID,
			PostID:    env.PostID,
			IsLike:    env.IsLike,
			LikeTime:  likeTime,
			EventedAt: eventTime,
		}, nil
	case TopicPostComments:
		var env commentEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, fmt.Errorf("decode comment envelope: %w", err)
		}
		commentTime, err := parseEventTime(env.CommentTime)
		if err != nil {
			return nil, fmt.Errorf("parse comment_time: %w", err)
		}
		eventTime, err := parseEventTime(env.EventTime)
		if err != nil {
			return nil, fmt.Errorf("parse event_time: %w", err)
		}
		return CommentEvent{
			EventID:     env.EventID,
			UserID:      env.UserID,
			PostID:      env.PostID,
			CommentID:   env.CommentID,
			CommentTime: commentTime,
			EventedAt:   eventTime,
		}, nil
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
}

// ActionTopics lists every topic the ingestion consumer subscribes to.
func ActionTopics() []string {
	return []string{TopicPostViews, TopicPostLikes, TopicPostComments}
}

func pairKey(userID, postID int64) string {
	return strconv.FormatInt(userID, 10) + "_" + strconv.FormatInt(postID, 10)
}

func parseEventTime(raw string) (time.Time, error) {
	return time.Parse(EventTimeFormat, raw)
}
