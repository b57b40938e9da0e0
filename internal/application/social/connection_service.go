// Package social implements the simulated social platform connection flows:
// connecting and disconnecting platforms, hydrating connection state from
// per-user settings, and gating share requests on an active connection.
package social

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/domain/settings"
	"github.com/copystudio/backend/internal/domain/shared"
	"github.com/copystudio/backend/internal/domain/social"
)

// Notifier delivers a user-visible notification. Connection flips cannot
// fail once persisted, so only success notifications are ever emitted.
type Notifier interface {
	Notify(ctx context.Context, userID, message string)
}

// LogNotifier records notifications in the application log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, userID, message string) {
	n.logger.Info("User notification",
		zap.String("user_id", userID),
		zap.String("message", message))
}

// ConnectionStatus is the connection state of one platform for one user.
type ConnectionStatus struct {
	Platform  social.Platform `json:"platform"`
	Connected bool            `json:"connected"`
}

// ConnectionService manages per-user platform connections. Connections are
// a local simulation: no platform API is ever called, the flag is simply
// persisted under the platform's settings key.
type ConnectionService struct {
	repo     settings.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewConnectionService creates a connection service.
func NewConnectionService(repo settings.Repository, notifier Notifier, logger *zap.Logger) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &ConnectionService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Connect marks the platform connected for the user and persists the flag.
func (s *ConnectionService) Connect(ctx context.Context, userID string, platform social.Platform) (ConnectionStatus, error) {
	return s.setConnected(ctx, userID, platform, true)
}

// Disconnect marks the platform disconnected for the user.
func (s *ConnectionService) Disconnect(ctx context.Context, userID string, platform social.Platform) (ConnectionStatus, error) {
	return s.setConnected(ctx, userID, platform, false)
}

func (s *ConnectionService) setConnected(ctx context.Context, userID string, platform social.Platform, connected bool) (ConnectionStatus, error) {
	if !platform.Connectable() {
		return ConnectionStatus{}, social.ErrNotConnectable
	}

	if err := s.repo.Set(ctx, userID, platform.SettingKey(), settings.FormatBool(connected)); err != nil {
		s.logger.Error("Failed to persist connection state",
			zap.String("user_id", userID),
			zap.String("platform", string(platform)),
			zap.Error(err))
		return ConnectionStatus{}, fmt.Errorf("persist connection state: %w", err)
	}

	verb := "Connected to"
	if !connected {
		verb = "Disconnected from"
	}
	s.notifier.Notify(ctx, userID, fmt.Sprintf("%s %s", verb, platform.DisplayName()))

	s.logger.Info("Platform connection changed",
		zap.String("user_id", userID),
		zap.String("platform", string(platform)),
		zap.Bool("connected", connected))

	return ConnectionStatus{Platform: platform, Connected: connected}, nil
}

// Connected reports whether the platform is connected for the user.
// Absent or malformed persisted values count as disconnected.
func (s *ConnectionService) Connected(ctx context.Context, userID string, platform social.Platform) (bool, error) {
	if !platform.Connectable() {
		return false, social.ErrNotConnectable
	}
	value, err := s.repo.Get(ctx, userID, platform.SettingKey())
	if err != nil {
		return false, fmt.Errorf("load connection state: %w", err)
	}
	return settings.IsTrue(value), nil
}

// Statuses hydrates the connection state of every connectable platform.
func (s *ConnectionService) Statuses(ctx context.Context, userID string) ([]ConnectionStatus, error) {
	all, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load connection states: %w", err)
	}
	platforms := []social.Platform{social.PlatformLinkedIn, social.PlatformTwitter}
	statuses := make([]ConnectionStatus, 0, len(platforms))
	for _, p := range platforms {
		statuses = append(statuses, ConnectionStatus{
			Platform:  p,
			Connected: settings.IsTrue(all[p.SettingKey()]),
		})
	}
	return statuses, nil
}

// AuthorizeShare gates a share request on an active platform connection.
// A disconnected platform yields the connection-required domain error, which
// the HTTP layer maps to a redirect-to-integrations conflict.
func (s *ConnectionService) AuthorizeShare(ctx context.Context, userID string, platform social.Platform) error {
	connected, err := s.Connected(ctx, userID, platform)
	if err != nil {
		return err
	}
	if !connected {
		return shared.ErrConnectionRequired
	}
	return nil
}
