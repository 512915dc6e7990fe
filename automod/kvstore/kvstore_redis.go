package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// backoff bounds when the initial connection attempt fails
	connectInitialWait = 1 * time.Second
	connectMaxWait     = 60 * time.Second
)

type RedisStore struct {
	Client *redis.Client
}

var _ KVStore = (*RedisStore)(nil)

// Parses the URL and pings the server, retrying with exponential backoff: the wait doubles from one second and is capped at a minute. Retries continue until the server answers or ctx is done.
func NewRedisStore(ctx context.Context, redisURL string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	wait := connectInitialWait
	for {
		_, err = rdb.Ping(ctx).Result()
		if err == nil {
			break
		}
		logger.Warn("failed to connect to redis, backing off", "err", err, "wait", wait)
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping failed: %w", errors.Join(err, ctx.Err()))
		case <-time.After(wait):
		}
		wait = min(2*wait, connectMaxWait)
	}
	return &RedisStore{Client: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	val, err := s.Client.Get(ctx, string(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, val []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, string(key), val, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...[]byte) error {
	if len(keys) == 0 {
		return nil
	}
	strs := make([]string, len(keys))
	for i, k := range keys {
		strs[i] = string(k)
	}
	return s.Client.Del(ctx, strs...).Err()
}

func (s *RedisStore) Expire(ctx context.Context, key []byte, ttl time.Duration) error {
	return s.Client.Expire(ctx, string(key), ttl).Err()
}

func (s *RedisStore) HGet(ctx context.Context, key, field []byte) ([]byte, error) {
	val, err := s.Client.HGet(ctx, string(key), string(field)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key []byte) (map[string][]byte, error) {
	raw, err := s.Client.HGetAll(ctx, string(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string][]byte, len(raw))
	for f, v := range raw {
		out[f] = []byte(v)
	}
	return out, nil
}

func (s *RedisStore) SMembers(ctx context.Context, key []byte) ([][]byte, error) {
	raw, err := s.Client.SMembers(ctx, string(key)).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(raw))
	for i, m := range raw {
		out[i] = []byte(m)
	}
	return out, nil
}

// Runs the batch inside MULTI/EXEC.
func (s *RedisStore) Exec(ctx context.Context, tx *Tx) ([]Reply, error) {
	if tx == nil || tx.Len() == 0 {
		return nil, nil
	}
	reads := make(map[int]*redis.StringCmd)
	cmds, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, o := range tx.ops {
			key := string(o.key)
			switch o.kind {
			case opSet:
				pipe.Set(ctx, key, o.val, o.ttl)
			case opDelete:
				pipe.Del(ctx, key)
			case opExpire:
				pipe.Expire(ctx, key, o.ttl)
			case opHSet:
				pipe.HSet(ctx, key, string(o.field), o.val)
			case opHSetMany:
				pairs := make([]interface{}, 0, 2*len(o.fields))
				for f, v := range o.fields {
					pairs = append(pairs, f, v)
				}
				pipe.HSet(ctx, key, pairs...)
			case opHGet:
				reads[i] = pipe.HGet(ctx, key, string(o.field))
			case opHDel:
				pipe.HDel(ctx, key, string(o.field))
			case opSAdd:
				pipe.SAdd(ctx, key, o.val)
			case opSRem:
				pipe.SRem(ctx, key, o.val)
			default:
				return fmt.Errorf("unhandled kvstore op: %d", o.kind)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	// the pipeline only reports the first failing command, and a missing hash field (redis.Nil) may mask a later write error
	for _, cmd := range cmds {
		if cerr := cmd.Err(); cerr != nil && !errors.Is(cerr, redis.Nil) {
			return nil, fmt.Errorf("kvstore exec %s: %w", cmd.Name(), cerr)
		}
	}

	replies := make([]Reply, len(tx.ops))
	for i, cmd := range reads {
		val, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		} else if err != nil {
			return nil, err
		}
		replies[i] = Reply{Value: val, Found: true}
	}
	return replies, nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
