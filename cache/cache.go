// Package cache records the bot's process state in redis so operators and
// sibling services can see whether it is up and which extensions it runs.
package cache

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "venkatesh:"
	processKey    = keyPrefix + "process"
	extensionsKey = keyPrefix + "extensions"
)

// Process states written by the bot.
const (
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateInitialized  = "initialized"
	StateDisconnected = "disconnected"
)

// Store is the redis-backed process record.
type Store struct {
	rdb *redis.Client
}

// New connects to redis. It returns nil, nil when no address is configured.
func New(ctx context.Context, cfg *config.RedisConfig) (*Store, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to cache at %s: %w", cfg.Addr, err)
	}
	return &Store{rdb: rdb}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// ReportProcess records state along with the pid. started_at is written
// once per record.
func (s *Store) ReportProcess(ctx context.Context, state string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, processKey, "state", state, "pid", os.Getpid(), "updated_at", now)
	pipe.HSetNX(ctx, processKey, "started_at", now)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("could not report process state %s: %w", state, err)
	}
	return nil
}

// Process returns the current process record.
func (s *Store) Process(ctx context.Context) (map[string]string, error) {
	rec, err := s.rdb.HGetAll(ctx, processKey).Result()
	if err != nil {
		return nil, fmt.Errorf("could not load process record: %w", err)
	}
	return rec, nil
}

// SetExtensions replaces the set of loaded extension paths.
func (s *Store) SetExtensions(ctx context.Context, paths []string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, extensionsKey)
	if len(paths) > 0 {
		members := make([]interface{}, len(paths))
		for i, p := range paths {
			members[i] = p
		}
		pipe.SAdd(ctx, extensionsKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("could not store loaded extensions: %w", err)
	}
	return nil
}

// Extensions returns the stored extension paths, sorted.
func (s *Store) Extensions(ctx context.Context) ([]string, error) {
	paths, err := s.rdb.SMembers(ctx, extensionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("could not load extensions: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ClearProcess removes the process record and the extension set.
func (s *Store) ClearProcess(ctx context.Context) error {
	if err := s.rdb.Del(ctx, processKey, extensionsKey).Err(); err != nil {
		return fmt.Errorf("could not clear process record: %w", err)
	}
	return nil
}
