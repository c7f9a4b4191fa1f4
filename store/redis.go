package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/gameark/core"
)

// RedisOptions 是 RedisStore 的连接参数。
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // 所有 key 的前缀，多个实例共用一个库时区分命名空间
}

// RedisStore 是 Redis 实现的 KeyValueStore，多实例部署时共享快照与热门列表。
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: redis ping", err)
	}
	return &RedisStore{client: client, prefix: opts.KeyPrefix}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	var expiration time.Duration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}
	return r.client.Set(ctx, r.key(key), value, expiration).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return r.client.ZAdd(ctx, r.key(key), redis.Z{Score: score, Member: member}).Err()
}

func (r *RedisStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRevRange(ctx, r.key(key), start, stop).Result()
}

func (r *RedisStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	score, err := r.client.ZScore(ctx, r.key(key), member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, core.ErrStoreNotFound
	}
	return score, err
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.KeyValueStore = (*RedisStore)(nil)
