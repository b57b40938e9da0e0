// Package settings defines per-user workspace preferences persisted by the
// gateway, replacing what a browser client would keep in local storage.
package settings

import "context"

// Well-known setting keys
const (
	KeyLinkedInConnected = "linkedinConnected"
	KeyTwitterConnected  = "twitterConnected"
	KeySelectedModel     = "selectedModel"
)

// Boolean settings are stored as the strings "true" and "false"
const (
	ValueTrue  = "true"
	ValueFalse = "false"
)

// Repository persists per-user settings as a flat key/value namespace
type Repository interface {
	// Get returns the value for a key, or ("", nil) when unset
	Get(ctx context.Context, userID, key string) (string, error)

	// Set stores a value, overwriting any previous one
	Set(ctx context.Context, userID, key, value string) error

	// GetAll returns every setting stored for a user
	GetAll(ctx context.Context, userID string) (map[string]string, error)

	// Delete removes a key; deleting an unset key is not an error
	Delete(ctx context.Context, userID, key string) error
}

// IsTrue reports whether a stored value represents an enabled boolean
// setting. Absent or malformed values count as false.
func IsTrue(value string) bool {
	return value == ValueTrue
}

// FormatBool renders a boolean as its stored representation
func FormatBool(v bool) string {
	if v {
		return ValueTrue
	}
	return ValueFalse
}
