package social

import (
	"strings"

	"github.com/copystudio/backend/internal/domain/shared"
)

// Platform identifies a social media platform
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
)

// Common social domain errors
var (
	ErrUnknownPlatform = shared.NewDomainError("UNKNOWN_PLATFORM", "Unknown social platform")
	ErrNotConnectable  = shared.NewDomainError("NOT_CONNECTABLE", "Platform does not support connections")
)

// ParsePlatform parses a platform identifier from its string form
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformFacebook:
		return PlatformFacebook, nil
	case PlatformTwitter:
		return PlatformTwitter, nil
	case PlatformInstagram:
		return PlatformInstagram, nil
	case PlatformLinkedIn:
		return PlatformLinkedIn, nil
	default:
		return "", ErrUnknownPlatform
	}
}

// Connectable reports whether the platform supports workspace connections.
// Only LinkedIn and Twitter connections are offered today.
func (p Platform) Connectable() bool {
	return p == PlatformLinkedIn || p == PlatformTwitter
}

// SettingKey returns the per-user settings key under which the connection
// flag for this platform is persisted ("linkedinConnected", "twitterConnected").
func (p Platform) SettingKey() string {
	return string(p) + "Connected"
}

// DisplayName returns the platform's user-facing name
func (p Platform) DisplayName() string {
	switch p {
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformTwitter:
		return "Twitter"
	case PlatformFacebook:
		return "Facebook"
	case PlatformInstagram:
		return "Instagram"
	default:
		return string(p)
	}
}

// ConnectionState represents the connection state of a platform
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnected    ConnectionState = "connected"
)

// Connected reports whether the state is the connected state
func (s ConnectionState) Connected() bool {
	return s == StateConnected
}
