package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/safar/agromarket/internal/market"
)

const sessionPrefix = "session:"

// RedisSessions keeps one key per session holding the owning account id.
// Keys expire with the token.
type RedisSessions struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client, now: time.Now}
}

func sessionKey(id uuid.UUID) string {
	return sessionPrefix + id.String()
}

func (r *RedisSessions) Save(ctx context.Context, s *market.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	return r.client.Set(ctx, sessionKey(s.ID), s.Account.ID.String(), ttl).Err()
}

func (r *RedisSessions) Lookup(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup session: %w", err)
	}

	accountID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session owner: %w", err)
	}
	return accountID, nil
}

func (r *RedisSessions) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}
