package state

import "github.com/copystudio/backend/internal/domain/social"

// Profile mirrors a server-side writing profile. The profiles service only
// returns id, name, context and created_at, so TargetAudience and SocialMedia
// are always filled with empty defaults (a known lossy mapping), and
// timestamps are kept as the verbatim strings the service returned.
// Identifiers are strings even though the service uses numeric IDs.
type Profile struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	TargetAudience string                     `json:"target_audience"`
	SocialMedia    map[social.Platform]string `json:"social_media"`
	CreatedAt      string                     `json:"created_at"`
	UpdatedAt      string                     `json:"updated_at"`
}
