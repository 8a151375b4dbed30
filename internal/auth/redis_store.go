package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "tutora:session:"
	userSessionKeyPrefix = "tutora:user_sessions:"
	resetKeyPrefix       = "tutora:reset:"
)

// RedisStore tracks live sessions and pending password resets. Session keys
// expire with the token, so a signed-out or revoked token stops validating
// even though its signature still verifies.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) SaveSession(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	userKey := userSessionKeyPrefix + userID.String()
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKeyPrefix+sessionID, userID.String(), ttl)
		p.SAdd(ctx, userKey, sessionID)
		p.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionKeyPrefix+sessionID)
		p.SRem(ctx, userSessionKeyPrefix+userID.String(), sessionID)
		return nil
	})
	return err
}

// RevokeUserSessions deletes every session recorded for userID.
func (s *RedisStore) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	userKey := userSessionKeyPrefix + userID.String()
	ids, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, userKey)
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) SaveReset(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Set(ctx, resetKeyPrefix+tokenHash, userID.String(), ttl).Err()
}

// ConsumeReset returns the user a reset token was issued for and deletes the
// token so it cannot be used twice.
func (s *RedisStore) ConsumeReset(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	v, err := s.rdb.GetDel(ctx, resetKeyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidResetToken
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, ErrInvalidResetToken
	}
	return id, nil
}
