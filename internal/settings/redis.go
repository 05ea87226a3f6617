package settings

import (
	"context"
	"errors"
	"io"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys in a shared Redis.
const DefaultRedisPrefix = "muezzin:"

// RedisKV stores values as plain Redis strings under a prefix.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV connects to addr and verifies the connection with PING.
func NewRedisKV(ctx context.Context, addr, username, password string, db int, prefix string) (*RedisKV, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, &StorageError{Op: "ping", Key: addr, Err: err}
	}
	return NewRedisKVFromClient(rdb, prefix), nil
}

// NewRedisKVFromClient wraps an existing client.
func NewRedisKVFromClient(rdb *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, pairs map[string]string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, r.prefix+k, v, 0)
		}
		pipe.Publish(ctx, r.changes(), "set")
		return nil
	})
	return err
}

func (r *RedisKV) changes() string { return r.prefix + "changes" }

// Subscribe calls onChange after every Set made by any process sharing the
// prefix, this one included. Closing the returned Closer stops delivery.
func (r *RedisKV) Subscribe(ctx context.Context, onChange func()) (io.Closer, error) {
	sub := r.rdb.Subscribe(ctx, r.changes())
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, &StorageError{Op: "subscribe", Key: r.changes(), Err: err}
	}
	go func() {
		for range sub.Channel() {
			onChange()
		}
	}()
	return sub, nil
}

func (r *RedisKV) Close() error {
	return r.rdb.Close()
}
