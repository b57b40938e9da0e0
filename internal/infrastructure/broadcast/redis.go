package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultChannel      = "workspace:refresh"
	defaultCloseTimeout = 5 * time.Second
)

// RedisBroadcaster implements Broadcaster over Redis Pub/Sub
type RedisBroadcaster struct {
	client    *redis.Client
	channel   string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// RedisBroadcasterOption configures a RedisBroadcaster
type RedisBroadcasterOption func(*RedisBroadcaster)

// WithChannel sets the Pub/Sub channel name
func WithChannel(channel string) RedisBroadcasterOption {
	return func(b *RedisBroadcaster) {
		b.channel = channel
	}
}

// WithLogger sets the logger for the broadcaster
func WithLogger(logger *zap.Logger) RedisBroadcasterOption {
	return func(b *RedisBroadcaster) {
		b.logger = logger
	}
}

// NewRedisBroadcaster creates a broadcaster using an existing Redis client.
// The caller retains ownership of the client.
func NewRedisBroadcaster(client *redis.Client, opts ...RedisBroadcasterOption) *RedisBroadcaster {
	b := &RedisBroadcaster{
		client:  client,
		channel: defaultChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends a refresh hint to all subscribed instances
func (b *RedisBroadcaster) Publish(ctx context.Context, msg RefreshMessage) error {
	msg = stamp(msg)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh message: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish refresh message",
			zap.String("channel", b.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish refresh message: %w", err)
	}

	b.logger.Debug("published refresh message",
		zap.String("user_id", msg.UserID),
		zap.String("slice", msg.Slice))
	return nil
}

// Subscribe blocks, invoking callback for each received message. Call in a
// goroutine.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, callback func(msg RefreshMessage)) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.isRunning = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		b.setStopped()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Info("subscribed to refresh channel", zap.String("channel", b.channel))
	ch := pubsub.Channel()

	for {
		select {
		case <-subCtx.Done():
			b.setStopped()
			b.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("refresh channel closed")
				b.setStopped()
				b.markDone()
				return nil
			}

			var refresh RefreshMessage
			if err := json.Unmarshal([]byte(msg.Payload), &refresh); err != nil {
				b.logger.Error("failed to unmarshal refresh message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			// Callback runs off the receive loop so a slow consumer cannot
			// stall the subscription
			go func(m RefreshMessage) {
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("panic in refresh callback", zap.Any("panic", r))
					}
				}()
				callback(m)
			}(refresh)
		}
	}
}

func (b *RedisBroadcaster) setStopped() {
	b.mu.Lock()
	b.isRunning = false
	b.mu.Unlock()
}

func (b *RedisBroadcaster) markDone() {
	b.doneOnce.Do(func() {
		close(b.doneCh)
	})
}

// Close stops the subscription
func (b *RedisBroadcaster) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-b.doneCh:
		case <-time.After(defaultCloseTimeout):
			b.logger.Warn("timeout waiting for subscription to stop")
		}
	}
	return nil
}

var _ Broadcaster = (*RedisBroadcaster)(nil)
