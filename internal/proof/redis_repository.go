package proof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "campaign:proof:"

type RedisRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// ConnectRedis accepts either a redis:// URL or a bare host:port.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

func NewRedisRepository(client redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func (r *RedisRepository) Find(ctx context.Context, id string) (*StoredProof, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var proof StoredProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, fmt.Errorf("json.Unmarshal %s: %w", id, err)
	}
	return &proof, nil
}

func (r *RedisRepository) Save(ctx context.Context, id string, proof *StoredProof) error {
	raw, err := json.Marshal(proof)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+id, raw, r.ttl).Err()
}
