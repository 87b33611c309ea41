package chess

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisGamePrefix = "chesspal:game:"
	redisIndexKey   = "chesspal:games"
)

// RedisStore keeps one JSON document per game plus a set indexing live ids.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to redisURL (redis:// or rediss://) and pings it.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis session store")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb, ttl, logger), nil
}

func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{rdb: rdb, ttl: ttl, logger: logger}
}

// ParseRedisURL converts redis://[:password@]host:port[/db] into client
// options. rediss:// enables TLS with the URL host as server name.
func ParseRedisURL(raw string) (*redis.Options, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

func redisGameKey(id string) string { return redisGamePrefix + strings.TrimSpace(id) }

func (s *RedisStore) Create(ctx context.Context, id string, state *corechess.GameState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, redisGameKey(id), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return ErrGameExists
	}
	if err := s.rdb.SAdd(ctx, redisIndexKey, strings.TrimSpace(id)).Err(); err != nil {
		return fmt.Errorf("redis index game: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*corechess.GameState, error) {
	raw, err := s.rdb.Get(ctx, redisGameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeState(raw)
}

func (s *RedisStore) Save(ctx context.Context, id string, state *corechess.GameState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, redisGameKey(id), raw, s.ttl)
	pipe.SAdd(ctx, redisIndexKey, strings.TrimSpace(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

// Update watches the game key; a write by another client between read and
// exec aborts the transaction with ErrConcurrentUpdate.
func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (*corechess.GameState, error) {
	key := redisGameKey(id)
	var next *corechess.GameState
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeState(raw)
		if err != nil {
			return err
		}
		updated, err := fn(cur)
		if err != nil {
			return err
		}
		out, err := encodeState(updated)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, out, s.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		next = updated
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Warn("session_update_conflict", zap.String("game_id", id))
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}
	return next, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, redisGameKey(id))
	pipe.SRem(ctx, redisIndexKey, strings.TrimSpace(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// List walks the index set and prunes ids whose documents have expired.
func (s *RedisStore) List(ctx context.Context) ([]StoredGame, error) {
	ids, err := s.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	games := make([]StoredGame, 0, len(ids))
	for _, id := range ids {
		state, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if state == nil {
			_ = s.rdb.SRem(ctx, redisIndexKey, id).Err()
			continue
		}
		games = append(games, StoredGame{ID: id, State: state})
	}
	sortStored(games)
	return games, nil
}

// Ping reports whether the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
