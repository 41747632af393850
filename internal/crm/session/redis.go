package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abodyssee/crm/internal/crm/domain"
	"github.com/abodyssee/crm/internal/crm/store"
)

const redisKeyPrefix = "crm:session:"

// RedisStore keeps sessions in Redis with a key TTL matching the session
// expiry, so expired sessions disappear without housekeeping.
type RedisStore struct {
	client *redis.Client
}

var _ store.Sessions = (*RedisStore)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

type redisSession struct {
	AdminID   int64  `json:"admin_id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

func (s *RedisStore) CreateSession(ctx context.Context, sess domain.Session) error {
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+sess.ID, encodeSession(sess), keyTTL(sess.ExpiresAt)).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	var rec redisSession
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return domain.Session{
		ID: id,
		User: domain.SessionUser{
			ID:       rec.AdminID,
			Username: rec.Username,
			Email:    rec.Email,
		},
		CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(rec.ExpiresAt, 0).UTC(),
	}, nil
}

func (s *RedisStore) ExtendSession(ctx context.Context, id string, expiresAt time.Time) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt

	ok, err := s.client.SetXX(ctx, redisKeyPrefix+id, encodeSession(sess), keyTTL(expiresAt)).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

// DeleteExpiredSessions is a no-op; Redis expires the keys itself.
func (s *RedisStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encodeSession(sess domain.Session) []byte {
	// Marshal of this flat struct cannot fail.
	raw, _ := json.Marshal(redisSession{
		AdminID:   sess.User.ID,
		Username:  sess.User.Username,
		Email:     sess.User.Email,
		CreatedAt: sess.CreatedAt.Unix(),
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
	return raw
}

// keyTTL never returns a non-positive duration; go-redis treats those as
// "no expiry".
func keyTTL(expiresAt time.Time) time.Duration {
	if d := time.Until(expiresAt); d > time.Second {
		return d
	}
	return time.Second
}
