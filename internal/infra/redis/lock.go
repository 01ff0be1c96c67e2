package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
)

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RedisLocker keeps one reconciler scan running across replicas.
type RedisLocker struct {
	cli RedisClient
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrAlreadyExists
	}
	return token, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	// Unlock only our own token; a naive DEL could release a lock that
	// expired and was re-acquired by another replica.
	got, err := l.cli.Get(ctx, key)
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}
	if got != token {
		return nil
	}
	return l.cli.Del(ctx, key)
}
