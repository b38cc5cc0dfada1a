// Package store mirrors matchmaking events into Redis for external
// consumers. Nothing is read back; the in-process engine stays the source of
// truth.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

const (
	DefaultChannel    = "mm:events"
	DefaultHistoryKey = "mm:matches"
)

// RedisPublisher publishes every event on a channel and keeps a capped list
// of recent matches.
type RedisPublisher struct {
	rdb        *redis.Client
	channel    string
	historyKey string
	historyCap int64
	log        logger.Logger
}

type Option func(*RedisPublisher)

func WithChannel(ch string) Option {
	return func(p *RedisPublisher) {
		if ch != "" {
			p.channel = ch
		}
	}
}

// WithHistory sets the list key and its capacity.
func WithHistory(key string, size int) Option {
	return func(p *RedisPublisher) {
		if key != "" {
			p.historyKey = key
		}
		if size > 0 {
			p.historyCap = int64(size)
		}
	}
}

func NewRedisPublisher(addr, password string, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		rdb:        redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		channel:    DefaultChannel,
		historyKey: DefaultHistoryKey,
		historyCap: 10,
		log:        logger.Named("redis"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ping checks connectivity.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.rdb.Close() }

// Publish implements match.Sink. Failures are logged, not returned, so an
// unavailable Redis never stalls matchmaking.
func (p *RedisPublisher) Publish(ctx context.Context, ev types.Event) {
	if err := p.publish(ctx, ev); err != nil {
		p.log.Warn(ctx, "redis publish failed", logger.String("type", ev.Type), logger.Error(err))
	}
}

func (p *RedisPublisher) publish(ctx context.Context, ev types.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.Publish(ctx, p.channel, body)
	if formed, ok := ev.Payload.(types.MatchFormed); ok {
		rec, err := json.Marshal(formed.Match)
		if err != nil {
			return fmt.Errorf("encode match: %w", err)
		}
		pipe.LPush(ctx, p.historyKey, rec)
		pipe.LTrim(ctx, p.historyKey, 0, p.historyCap-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("exec pipeline: %w", err)
	}
	return nil
}
