package persistence

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/copystudio/backend/internal/domain/settings"
	"github.com/copystudio/backend/internal/infrastructure/persistence/models"
)

// GormUserSettingRepository implements settings.Repository using GORM
type GormUserSettingRepository struct {
	db *gorm.DB
}

// NewGormUserSettingRepository creates a new GormUserSettingRepository
func NewGormUserSettingRepository(db *gorm.DB) *GormUserSettingRepository {
	return &GormUserSettingRepository{db: db}
}

// Get returns the value for a key, or empty string when unset
func (r *GormUserSettingRepository) Get(ctx context.Context, userID, key string) (string, error) {
	var m models.UserSettingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

// Set upserts a value for a key
func (r *GormUserSettingRepository) Set(ctx context.Context, userID, key, value string) error {
	m := models.UserSettingModel{
		UserID: userID,
		Key:    key,
		Value:  value,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&m).Error
}

// GetAll returns every setting stored for a user
func (r *GormUserSettingRepository) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	var rows []models.UserSettingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Delete removes a key; deleting an unset key succeeds
func (r *GormUserSettingRepository) Delete(ctx context.Context, userID, key string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		Delete(&models.UserSettingModel{}).Error
}

var _ settings.Repository = (*GormUserSettingRepository)(nil)

// MemoryUserSettingRepository is an in-memory settings.Repository for tests
// and ephemeral deployments
type MemoryUserSettingRepository struct {
	mu   sync.RWMutex
	data map[string]map[string]string // userID -> key -> value
}

// NewMemoryUserSettingRepository creates an empty in-memory repository
func NewMemoryUserSettingRepository() *MemoryUserSettingRepository {
	return &MemoryUserSettingRepository{data: make(map[string]map[string]string)}
}

// Get returns the value for a key, or empty string when unset
func (r *MemoryUserSettingRepository) Get(_ context.Context, userID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[userID][key], nil
}

// Set stores a value for a key
func (r *MemoryUserSettingRepository) Set(_ context.Context, userID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[userID] == nil {
		r.data[userID] = make(map[string]string)
	}
	r.data[userID][key] = value
	return nil
}

// GetAll returns a copy of every setting stored for a user
func (r *MemoryUserSettingRepository) GetAll(_ context.Context, userID string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.data[userID]))
	for k, v := range r.data[userID] {
		out[k] = v
	}
	return out, nil
}

// Delete removes a key
func (r *MemoryUserSettingRepository) Delete(_ context.Context, userID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data[userID], key)
	return nil
}

var _ settings.Repository = (*MemoryUserSettingRepository)(nil)
