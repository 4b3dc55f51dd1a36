// Package messaging defines the change-feed transport between the write side
// (admin mutations) and the collection mirrors. Reconnection and retry are the
// broker's problem, not the callers'.
package messaging

import (
	"context"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

// ChangeTopic maps a collection to its change-notification topic.
func ChangeTopic(c entity.Collection) string {
	return "store." + string(c) + ".changed"
}

// Publisher publishes change notices for a collection.
type Publisher interface {
	PublishChange(ctx context.Context, notice entity.ChangeNotice) error
}

// Subscriber consumes a topic until the context is cancelled.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}
