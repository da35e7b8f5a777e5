package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session holds the resolved state behind a bearer token.
type Session struct {
	Token       string
	UserID      int64
	Username    string
	Role        Role
	DeviceToken string
	IssuedAt    time.Time
}

type sessionPayload struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DeviceToken string `json:"device_token,omitempty"`
	IssuedAt    int64  `json:"issued_at"`
}

// SessionManager issues and resolves opaque bearer tokens backed by Redis.
// The token is the only state the client holds; role and username always come
// from the store so a protected view never renders before they are resolved.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
	secret []byte
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, ttl: ttl, secret: []byte(secret)}
}

// Issue creates a new session and stores it under a fresh token.
func (sm *SessionManager) Issue(ctx context.Context, userID int64, username string, role Role, deviceToken string) (*Session, error) {
	if !role.Valid() {
		return nil, errors.New("session requires a valid role")
	}
	now := time.Now()
	sess := &Session{
		Token:       sm.generateToken(),
		UserID:      userID,
		Username:    username,
		Role:        role,
		DeviceToken: deviceToken,
		IssuedAt:    now,
	}
	payload := sessionPayload{
		UserID:      userID,
		Username:    username,
		Role:        string(role),
		DeviceToken: deviceToken,
		IssuedAt:    now.Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), data, sm.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resolve looks up the session behind a token and slides its expiry.
func (sm *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	data, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	var stored sessionPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, ErrTokenInvalid
	}
	role, ok := ParseRole(stored.Role)
	if !ok {
		return nil, ErrTokenInvalid
	}
	// Sliding expiry keeps active consoles signed in.
	_ = sm.client.Expire(ctx, sm.redisKey(token), sm.ttl).Err()
	return &Session{
		Token:       token,
		UserID:      stored.UserID,
		Username:    stored.Username,
		Role:        role,
		DeviceToken: stored.DeviceToken,
		IssuedAt:    time.Unix(stored.IssuedAt, 0),
	}, nil
}

// Revoke deletes the session behind a token. Revoking an unknown token is a no-op.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// RevokeUser removes every session issued to a user, used when an account is
// deleted or deactivated so stale tokens cannot keep rendering protected views.
func (sm *SessionManager) RevokeUser(ctx context.Context, userID int64) error {
	iter := sm.client.Scan(ctx, 0, "token:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := sm.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var stored sessionPayload
		if json.Unmarshal(data, &stored) != nil {
			continue
		}
		if stored.UserID == userID {
			_ = sm.client.Del(ctx, key).Err()
		}
	}
	return iter.Err()
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) redisKey(token string) string {
	return "token:" + token
}

func (sm *SessionManager) generateToken() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
