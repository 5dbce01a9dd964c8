package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "assets:"

// RedisStore - Redis 해시에 에셋 저장
// 여러 서버 인스턴스가 같은 /assets/{id}를 서빙할 수 있음
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	id := uuid.NewString()
	key := redisKeyPrefix + id

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "mime", mimeType, "data", data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store asset in redis: %w", err)
	}

	log.Printf("📦 Stored asset %s in Redis (%d bytes, %s)", id, len(data), mimeType)
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Object, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read asset from redis: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{ID: id, MIMEType: fields["mime"], Data: []byte(data)}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete asset from redis: %w", err)
	}
	return nil
}
