package models

import "time"

// UserSettingModel is the persistence model for one per-user setting.
// Settings are a flat key/value namespace scoped to a user.
type UserSettingModel struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey"`
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserSettingModel) TableName() string {
	return "user_settings"
}
