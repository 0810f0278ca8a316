package ratelimit

import (
	"context"
	"errors"
	"time"

	"alcance-reducido-backend/config"

	"github.com/redis/go-redis/v9"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

const keyPrefix = "ratelimit:"

var casScript = redis.NewScript(`
	local current = redis.call("GET", KEYS[1])
	if current == false or tonumber(current) ~= tonumber(ARGV[1]) then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
`)

// RedisStore implementa throttled.GCRAStoreCtx sobre Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (s *RedisStore) GetWithTime(ctx context.Context, key string) (int64, time.Time, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, time.Now(), nil
		}
		return 0, time.Time{}, err
	}
	return val, time.Now(), nil
}

func (s *RedisStore) SetIfNotExistsWithTTL(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, value, ttl).Result()
}

func (s *RedisStore) CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	result, err := casScript.Run(ctx, s.client, []string{s.prefix + key}, old, new, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// NewStore usa Redis si REDIS_ADDRESS está definido y, si no, memoria local.
func NewStore(ctx context.Context, cfg config.Redis) (throttled.GCRAStoreCtx, func() error, error) {
	if cfg.Address == "" {
		store, err := memstore.NewCtx(65536)
		return store, func() error { return nil }, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return NewRedisStore(client), client.Close, nil
}
