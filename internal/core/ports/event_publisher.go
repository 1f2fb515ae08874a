package ports

import (
	"context"

	"github.com/socialstats/engage/internal/core/domain"
)

// EventPublisher hands an engagement event to the broker. Implementations must
// not block on delivery confirmation; an error means the event could not even
// be enqueued locally.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.EngagementEvent) error
}
