// Package broadcast propagates workspace refresh hints between gateway
// instances, so a mutation handled by one instance re-syncs the affected
// user's mirror everywhere.
package broadcast

import (
	"context"
	"time"
)

// RefreshMessage asks instances holding the user's workspace to re-fetch
// a slice from upstream
type RefreshMessage struct {
	UserID    string `json:"user_id"`
	Slice     string `json:"slice"` // "profiles", "projects", or "" for all
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster publishes and consumes refresh messages
type Broadcaster interface {
	// Publish sends a refresh hint to all subscribed instances
	Publish(ctx context.Context, msg RefreshMessage) error

	// Subscribe blocks, invoking callback for each received message, until
	// ctx is cancelled or Close is called
	Subscribe(ctx context.Context, callback func(msg RefreshMessage)) error

	// Close stops the subscription and releases resources
	Close() error
}

func stamp(msg RefreshMessage) RefreshMessage {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}
	return msg
}
