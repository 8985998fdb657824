// Package redisstore is a port.KVStore on Redis. Keys are namespaced so
// several environments can share one instance.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
)

var tracer = otel.Tracer("redis")

// Store implements port.KVStore.
type Store struct {
	client    *redis.Client
	namespace string
	cb        *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// Dial connects and pings.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// New wraps an existing client.
func New(client *redis.Client, namespace string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *Store {
	return &Store{client: client, namespace: namespace, cb: cb, logger: logger}
}

func (s *Store) exec(op string, fn func() error) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "redis"}
	default:
		s.logger.Warn("redis: command failed", zap.String("op", op), zap.Error(err))
		return &domain.ErrExternalService{Service: "redis/" + op, Err: err}
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "Redis.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var (
		value []byte
		found bool
	)
	err := s.exec("get", func() error {
		v, err := s.client.Get(ctx, s.namespace+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

// SetMany writes inside MULTI/EXEC.
func (s *Store) SetMany(ctx context.Context, entries map[string][]byte) error {
	ctx, span := tracer.Start(ctx, "Redis.SetMany")
	defer span.End()
	span.SetAttributes(attribute.Int("kv.entries", len(entries)))

	if len(entries) == 0 {
		return nil
	}
	return s.exec("set", func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for k, v := range entries {
				pipe.Set(ctx, s.namespace+k, v, 0)
			}
			return nil
		})
		return err
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, []string{key})
}

// DeleteMany issues a single DEL, which Redis applies atomically.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	ctx, span := tracer.Start(ctx, "Redis.DeleteMany")
	defer span.End()
	span.SetAttributes(attribute.Int("kv.entries", len(keys)))

	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.namespace + k
	}
	return s.exec("delete", func() error {
		return s.client.Del(ctx, full...).Err()
	})
}

// Keys walks the namespace with SCAN.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Redis.Keys")
	defer span.End()

	var keys []string
	err := s.exec("keys", func() error {
		keys = keys[:0]
		iter := s.client.Scan(ctx, 0, s.namespace+prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			k := strings.TrimPrefix(iter.Val(), s.namespace)
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		return iter.Err()
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.exec("ping", func() error {
		return s.client.Ping(ctx).Err()
	})
}
