package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hazyhaar/autofill/booking"
)

// DefaultRedisKey is the list reports are pushed onto.
const DefaultRedisKey = "autofill:reports"

// Redis keeps the most recent reports in a list, newest first, trimmed to
// Keep entries.
type Redis struct {
	rdb  *redis.Client
	key  string
	keep int64
}

// RedisOption configures a Redis sink.
type RedisOption func(*Redis)

// WithRedisKey overrides DefaultRedisKey.
func WithRedisKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

// WithRedisKeep bounds the list. Default: 200.
func WithRedisKeep(n int64) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.keep = n
		}
	}
}

// NewRedis pushes reports to the server at addr (host:port).
func NewRedis(addr string, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:  redis.NewClient(&redis.Options{Addr: addr}),
		key:  DefaultRedisKey,
		keep: 200,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Redis) Send(ctx context.Context, rep booking.Report) error {
	data, err := json.Marshal(wrap(rep))
	if err != nil {
		return fmt.Errorf("sink: redis: marshal: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.keep-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sink: redis: push %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
