package credentials

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mobirithm/appkit/internal/common"
	"github.com/redis/go-redis/v9"
)

const redisScanBatch = 100

// RedisRepository stores entries as plain string keys "<service>:<key>".
type RedisRepository struct {
	client  redis.UniversalClient
	service string
}

func NewRedisRepository(client redis.UniversalClient, service string) *RedisRepository {
	return &RedisRepository{client: client, service: service}
}

func (r *RedisRepository) redisKey(key string) string {
	return r.service + ":" + key
}

func (r *RedisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Set uses SETNX so an existing entry yields ErrDuplicate.
func (r *RedisRepository) Set(ctx context.Context, key string, value []byte) error {
	ok, err := r.client.SetNX(ctx, r.redisKey(key), value, 0).Result()
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("credential[%s]: %w", key, ErrDuplicate)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) scan(ctx context.Context, fn func(batch []string) error) error {
	var cursor uint64
	match := r.service + ":*"
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", match, err)
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *RedisRepository) List(ctx context.Context) ([]string, error) {
	prefix := r.service + ":"
	var keys []string
	err := r.scan(ctx, func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (r *RedisRepository) Clear(ctx context.Context) error {
	return r.scan(ctx, func(batch []string) error {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear %s: %w", r.service, err)
		}
		return nil
	})
}
