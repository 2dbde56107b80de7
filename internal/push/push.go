// Package push defines the transport that delivers newly inserted
// messages to attached room listeners.
package push

import (
	"context"

	"github.com/Eyoab11/kuriftu/internal/models"
)

// Subscription is a handle on a room's live insert feed.
type Subscription interface {
	Close() error
}

// Broker publishes inserted messages and fans them out to subscribers.
// Delivery is ordered per room and at-least-once; consumers must tolerate
// an occasional duplicate of the same row.
type Broker interface {
	Publish(ctx context.Context, msg *models.Message) error
	Subscribe(ctx context.Context, roomID string, fn func(models.Message)) (Subscription, error)
}
