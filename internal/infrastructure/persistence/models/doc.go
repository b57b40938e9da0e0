// Package models contains GORM-specific persistence models that map to database
// tables. They are kept separate from domain types so the domain layer stays
// free of ORM concerns; repositories convert between the two.
//
// The gateway persists only per-user settings (social connection flags and the
// selected AI model), stored as key/value rows in user_settings.
package models
