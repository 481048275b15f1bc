package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist remembers revoked tokens until their natural expiry.
// Redis is preferred so revocations survive restarts and are shared
// between instances; without it entries live in process memory.
type TokenBlacklist struct {
	rc      *redis.Client
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewTokenBlacklist creates a blacklist backed by rc, or by memory when rc is nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, entries: map[string]time.Time{}}
}

// Add revokes token until expiresAt. Already expired tokens are ignored.
// The in-memory store drops lapsed entries on every Add.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
	}
	b.mu.Lock()
	now := time.Now()
	for t, exp := range b.entries {
		if now.After(exp) {
			delete(b.entries, t)
		}
	}
	b.entries[token] = expiresAt
	b.mu.Unlock()
	return nil
}

// Contains checks if a token was revoked before natural expiration.
func (b *TokenBlacklist) Contains(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistPrefix+token).Result()
		if err == nil {
			return n > 0
		}
		// fail open on Redis errors to avoid locking every user out
		return false
	}

	b.mu.RLock()
	expiresAt, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false
	}
	return true
}
