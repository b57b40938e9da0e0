package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker invalidates JWT tokens before they expire (sign-out, or
// sign-out-everywhere for a user).
type TokenRevoker interface {
	// Revoke marks a token's JTI as revoked. ttl should be the remaining
	// time until the token expires.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks whether a token's JTI has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser invalidates all tokens issued to a user before now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at the given time falls
	// before the user's revocation cutoff
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisTokenRevoker implements TokenRevoker on Redis so revocations are
// visible across gateway instances
type RedisTokenRevoker struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenRevoker creates a revoker using an existing Redis client
func NewRedisTokenRevoker(client *redis.Client) *RedisTokenRevoker {
	return &RedisTokenRevoker{
		client: client,
		prefix: "session:revoked:",
	}
}

func (r *RedisTokenRevoker) jtiKey(jti string) string {
	return r.prefix + "jti:" + jti
}

func (r *RedisTokenRevoker) userKey(userID string) string {
	return r.prefix + "user:" + userID
}

// Revoke marks a token's JTI as revoked
func (r *RedisTokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether a token's JTI has been revoked
func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

// RevokeUser stores the current timestamp as the user's revocation cutoff
func (r *RedisTokenRevoker) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	cutoff := time.Now().Unix()
	if err := r.client.Set(ctx, r.userKey(userID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked reports whether the token was issued before the user's
// revocation cutoff
func (r *RedisTokenRevoker) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	val, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation cutoff: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ TokenRevoker = (*RedisTokenRevoker)(nil)

// MemoryTokenRevoker is an in-memory TokenRevoker for single-instance
// deployments and tests
type MemoryTokenRevoker struct {
	mu      sync.RWMutex
	jtis    map[string]time.Time // JTI -> revocation entry expiry
	cutoffs map[string]time.Time // userID -> revocation cutoff
}

// NewMemoryTokenRevoker creates an in-memory token revoker
func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
	}
}

// Revoke marks a token's JTI as revoked until its ttl elapses
func (r *MemoryTokenRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jtis[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks whether a token's JTI is revoked, pruning expired entries
func (r *MemoryTokenRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, exists := r.jtis[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(r.jtis, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser records now as the user's revocation cutoff
func (r *MemoryTokenRevoker) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs[userID] = time.Now()
	return nil
}

// IsUserRevoked reports whether the token was issued at or before the
// user's revocation cutoff
func (r *MemoryTokenRevoker) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff, exists := r.cutoffs[userID]
	if !exists {
		return false, nil
	}
	return issuedAt.UnixNano() <= cutoff.UnixNano(), nil
}

var _ TokenRevoker = (*MemoryTokenRevoker)(nil)
