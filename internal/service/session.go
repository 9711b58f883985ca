package service

import (
	"context"
	"encoding/json"
	"errors"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
)

// Session 已验证的调用者，显式传入每个业务操作
type Session struct {
	UserID    uint           `json:"userId"`
	Email     string         `json:"email"`
	Role      model.UserRole `json:"role"`
	SessionID string         `json:"sessionId"`
}

func (s Session) IsAdmin() bool {
	return s.Role == model.Admin
}

// Owns 资源属于当前用户
func (s Session) Owns(userID uint) bool {
	return s.UserID == userID
}

type SessionStore interface {
	Save(ctx context.Context, sess Session, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*Session, error)
	Refresh(ctx context.Context, sessionID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore 会话保存在 Redis，过期即失效
type RedisSessionStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	return &RedisSessionStore{Client: client, Prefix: prefix}
}

func (s *RedisSessionStore) key(id string) string {
	return s.Prefix + id
}

func (s *RedisSessionStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.key(sess.SessionID), data, ttl).Err()
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.Client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Refresh(ctx context.Context, sessionID string, ttl time.Duration) error {
	ok, err := s.Client.Expire(ctx, s.key(sessionID), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrSessionExpired
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, s.key(sessionID)).Err()
}
