package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTokenKey is where the bearer token lives unless configured otherwise.
const DefaultTokenKey = "quizbattle:auth:token"

// TokenStore keeps the bearer token in Redis so several terminals share one login.
// A zero ttl keeps the key until logout.
type TokenStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, key string, ttl time.Duration) *TokenStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenStore{client: client, key: key, ttl: ttl}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key, token, s.ttl).Err()
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
