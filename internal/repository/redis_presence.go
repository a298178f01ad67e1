package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"gp-captain-panel/internal/model"
)

// RedisPresenceStore implements PresenceStore on Redis: one hash per
// account (field = client id, value = RFC3339 last-seen). For
// low-latency deployments where a 1-minute GitHub commit per agent is
// too much churn.
type RedisPresenceStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisPresenceConfig holds connection settings for the presence store.
type RedisPresenceConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisPresenceStore connects to Redis and verifies the connection.
func NewRedisPresenceStore(cfg RedisPresenceConfig) (*RedisPresenceStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "gpbot:presence"
	}

	log.Info().Str("addr", cfg.Addr).Msg("redis presence store initialized")
	return &RedisPresenceStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *RedisPresenceStore) accountKey(account string) string {
	return s.keyPrefix + ":" + account
}

// Ping implements PresenceStore.
func (s *RedisPresenceStore) Ping(ctx context.Context, account, clientID string, seen time.Time) error {
	key := s.accountKey(account)
	if err := s.client.HSet(ctx, key, clientID, seen.UTC().Format(time.RFC3339Nano)).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// All implements PresenceStore by scanning the account hashes.
func (s *RedisPresenceStore) All(ctx context.Context) (model.OnlineStore, error) {
	store := model.OnlineStore{}

	iter := s.client.Scan(ctx, 0, s.keyPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		account := strings.TrimPrefix(key, s.keyPrefix+":")

		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
		}
		for clientID, tsStr := range fields {
			ts, err := time.Parse(time.RFC3339Nano, tsStr)
			if err != nil {
				// unreadable timestamps age out of the online window anyway
				continue
			}
			store.Touch(account, clientID, ts)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return store, nil
}

// Close closes the Redis connection.
func (s *RedisPresenceStore) Close() error {
	return s.client.Close()
}
