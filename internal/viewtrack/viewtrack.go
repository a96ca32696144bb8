// Package viewtrack de-duplicates anonymous post views by network address.
package viewtrack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const viewSetKeyPrefix = "newsroom:views:post"

// Counter is the part of the post store the trackers need.
type Counter interface {
	MarkAddrViewed(ctx context.Context, postID uuid.UUID, addr string) (bool, error)
	IncrementViews(ctx context.Context, postID uuid.UUID) error
}

// Tracker counts an anonymous view at most once per address and post.
// CountView reports whether the post's view counter was incremented.
type Tracker interface {
	CountView(ctx context.Context, postID uuid.UUID, addr string) (bool, error)
}

// StoreTracker records addresses on the post document itself.
type StoreTracker struct {
	store Counter
}

func NewStoreTracker(store Counter) *StoreTracker {
	return &StoreTracker{store: store}
}

func (t *StoreTracker) CountView(ctx context.Context, postID uuid.UUID, addr string) (bool, error) {
	return t.store.MarkAddrViewed(ctx, postID, addr)
}

// RedisTracker keeps one expiring address set per post. When Redis is
// unreachable it degrades to the store tracker.
type RedisTracker struct {
	client   redis.UniversalClient
	store    Counter
	fallback *StoreTracker
	ttl      time.Duration
}

func NewRedisTracker(client redis.UniversalClient, store Counter, ttl time.Duration) *RedisTracker {
	return &RedisTracker{
		client:   client,
		store:    store,
		fallback: NewStoreTracker(store),
		ttl:      ttl,
	}
}

func (t *RedisTracker) viewSetKey(postID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", viewSetKeyPrefix, postID)
}

func (t *RedisTracker) CountView(ctx context.Context, postID uuid.UUID, addr string) (bool, error) {
	key := t.viewSetKey(postID)

	var added *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		added = p.SAdd(ctx, key, addr)
		p.Expire(ctx, key, t.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("redis view tracking unavailable, using store", "post", postID, "error", err)
		return t.fallback.CountView(ctx, postID, addr)
	}
	if added.Val() == 0 {
		return false, nil
	}
	if err := t.store.IncrementViews(ctx, postID); err != nil {
		// let the next sighting retry
		_ = t.client.SRem(ctx, key, addr).Err()
		return false, err
	}
	return true, nil
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
