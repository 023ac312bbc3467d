package app

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// redisStore is a gin-cache store on the same Redis the ingestion queue uses
type redisStore struct {
	client *redis.Client
	prefix string
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client, prefix: "cache:"}
}

func (s *redisStore) Get(key string, value any) error {
	b, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return persist.ErrCacheMiss
		}
		return err
	}

	return gob.NewDecoder(bytes.NewReader(b)).Decode(value)
}

func (s *redisStore) Set(key string, value any, expire time.Duration) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}

	return s.client.Set(context.Background(), s.prefix+key, buf.Bytes(), expire).Err()
}

func (s *redisStore) Delete(key string) error {
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

// newCacheStore picks the response cache configured under cache.store
func newCacheStore(client *redis.Client) persist.CacheStore {
	if viper.GetString("cache.store") == "redis" && client != nil {
		return newRedisStore(client)
	}

	return persist.NewMemoryStore(time.Minute)
}
