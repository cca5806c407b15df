package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go-gin-helpdesk/internal/model"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	CookieName = "session_id"
	DefaultTTL = 24 * time.Hour
)

type Store interface {
	// Create 建立 session 並回傳 session id
	Create(ctx context.Context, identity *model.Identity) (string, error)
	// Get 取得 session 身分，不存在或過期時回傳 ErrSessionNotFound
	Get(ctx context.Context, sessionID string) (*model.Identity, error)
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// RedisStore keeps each session as a hash holding the identity fields, so a
// request does not need a database round trip to know who is logged in.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

func (s *RedisStore) Create(ctx context.Context, identity *model.Identity) (string, error) {
	sid := uuid.New().String()
	key := s.key(sid)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id":   identity.UserID,
			"firstname": identity.Firstname,
			"lastname":  identity.Lastname,
			"email":     identity.Email,
		})
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sid, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.Identity, error) {
	if sessionID == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	result, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	// HGetAll on a missing key returns an empty map
	if len(result) == 0 {
		return nil, apperrors.ErrSessionNotFound
	}

	userID, err := strconv.Atoi(result["user_id"])
	if err != nil {
		return nil, fmt.Errorf("invalid user_id in session: %w", err)
	}

	return &model.Identity{
		UserID:    userID,
		Firstname: result["firstname"],
		Lastname:  result["lastname"],
		Email:     result["email"],
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
