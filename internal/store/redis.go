// Package store provides shared implementations of game.Store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lox/fairdeal/internal/game"
)

// DefaultPrefix namespaces every key the Redis store writes.
const DefaultPrefix = "fairdeal:"

// Redis keeps hand state in Redis as JSON, one key per hand, plus a set of
// active hand ids. Several engine processes may share one Redis; writes are
// versioned so only one of two racing operations on a hand lands.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	// ResolvedTTL expires resolved hands when positive. Zero keeps them.
	ResolvedTTL time.Duration
}

// NewRedis returns a store using rdb. An empty prefix uses DefaultPrefix.
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (r *Redis) handKey(id string) string {
	return r.prefix + "hand:" + id
}

func (r *Redis) activeKey() string {
	return r.prefix + "active"
}

// Get implements game.Store.
func (r *Redis) Get(ctx context.Context, id string) (*game.State, error) {
	data, err := r.rdb.Get(ctx, r.handKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", game.ErrHandNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get hand %s: %w", id, err)
	}

	var s game.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode hand %s: %w", id, err)
	}
	return &s, nil
}

// Put implements game.Store. The version check and write run under WATCH,
// so a concurrent writer between the read and EXEC also fails the put.
func (r *Redis) Put(ctx context.Context, s *game.State) error {
	id := s.Hand.ID
	key := r.handKey(id)

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.version(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != s.Version {
			return game.StaleWrite(id, current, s.Version)
		}

		next := *s
		next.Version++
		data, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("encode hand %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if s.Hand.Street == game.Resolved {
				pipe.Set(ctx, key, data, r.ResolvedTTL)
				pipe.SRem(ctx, r.activeKey(), id)
				return nil
			}
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, r.activeKey(), id)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("put hand %s: %w", id, game.ErrStaleWrite)
	case errors.Is(err, game.ErrStaleWrite):
		return err
	case err != nil:
		return fmt.Errorf("put hand %s: %w", id, err)
	}
	s.Version++
	return nil
}

// version reads the stored version of key. A missing key is version zero.
func (r *Redis) version(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	var stored struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return stored.Version, nil
}

// ListActive implements game.Store.
func (r *Redis) ListActive(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.activeKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list active hands: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}
