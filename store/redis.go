package store

import (
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key so several apps can share one database.
	Prefix string
}

// RedisStore keeps each key as a plain Redis string under Prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    2,
		DialTimeout: 3 * time.Second,
	})

	pong, err := client.Ping().Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed connecting to redis at %s: %w", opts.Addr, err)
	}
	if pong != "PONG" {
		client.Close()
		return nil, fmt.Errorf("redis did not respond with 'PONG', '%s'", pong)
	}
	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

func (s *RedisStore) Get(key string) (string, bool, error) {
	v, err := s.client.Get(s.prefix + key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Put(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.client.Set(s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(key string) (bool, error) {
	n, err := s.client.Del(s.prefix + key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
