// Package preference manages non-connection workspace preferences, currently
// the user's selected AI model.
package preference

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/domain/settings"
)

// DefaultModel is returned when the user has not picked a model yet.
const DefaultModel = "gpt-4"

// Service reads and writes per-user preferences.
type Service struct {
	repo   settings.Repository
	logger *zap.Logger
}

// NewService creates a preference service.
func NewService(repo settings.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// SelectedModel returns the user's chosen AI model, or DefaultModel when unset.
func (s *Service) SelectedModel(ctx context.Context, userID string) (string, error) {
	value, err := s.repo.Get(ctx, userID, settings.KeySelectedModel)
	if err != nil {
		return "", fmt.Errorf("load selected model: %w", err)
	}
	if value == "" {
		return DefaultModel, nil
	}
	return value, nil
}

// SetSelectedModel persists the user's AI model choice.
func (s *Service) SetSelectedModel(ctx context.Context, userID, model string) error {
	if err := s.repo.Set(ctx, userID, settings.KeySelectedModel, model); err != nil {
		return fmt.Errorf("persist selected model: %w", err)
	}
	s.logger.Info("Selected model changed",
		zap.String("user_id", userID),
		zap.String("model", model))
	return nil
}
