package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	matchKeyPrefix = "guinote:match:"
	matchIndexKey  = "guinote:matches"
)

// RedisStore keeps each match as a JSON string with a TTL, plus an index set.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ MatchStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. ttl bounds how long an untouched match survives.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func matchKey(id uuid.UUID) string { return matchKeyPrefix + id.String() }

func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (*MatchRecord, error) {
	data, err := s.rdb.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	var rec MatchRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", rec.ID, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKey(rec.ID), data, s.ttl)
		pipe.SAdd(ctx, matchIndexKey, rec.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) Refresh(ctx context.Context, id uuid.UUID) error {
	ok, err := s.rdb.Expire(ctx, matchKey(id), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire %s: %w", id, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, matchKey(id))
		pipe.SRem(ctx, matchIndexKey, id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", id, err)
	}
	return nil
}

// List returns indexed ids whose record still exists; expired entries are pruned from the index.
func (s *RedisStore) List(ctx context.Context) ([]uuid.UUID, error) {
	members, err := s.rdb.SMembers(ctx, matchIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		n, err := s.rdb.Exists(ctx, matchKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis exists %s: %w", id, err)
		}
		if n == 0 {
			s.rdb.SRem(ctx, matchIndexKey, m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
