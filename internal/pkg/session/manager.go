// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	xerrors "crm-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Manager tracks issued tokens in Redis so logout can revoke a token
// before its JWT expiry. Redis is the source of truth: a token whose
// session key is gone is treated as revoked.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// Create stores a new session keyed by user ID and jti, expiring with the token.
func (m *Manager) Create(ctx context.Context, s *SessionData) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, m.key(s.UserID, s.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// Get retrieves an active session or ErrSessionExpired when absent.
func (m *Manager) Get(ctx context.Context, userID int64, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, m.key(userID, jti)).Bytes()
	if err == redis.Nil {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s SessionData
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Revoke deletes a single session, invalidating its token immediately.
func (m *Manager) Revoke(ctx context.Context, userID int64, jti string) error {
	if err := m.client.Del(ctx, m.key(userID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAll deletes every session belonging to a user.
func (m *Manager) RevokeAll(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("session:%d:*", userID)
	iter := m.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to revoke session %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan sessions: %w", err)
	}
	return nil
}

func (m *Manager) key(userID int64, jti string) string {
	return fmt.Sprintf("session:%d:%s", userID, jti)
}
