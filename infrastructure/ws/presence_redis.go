package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"roomchat/internal/entity"
)

// RedisPresence mirrors this instance's presence set into Redis so that
// every instance can report the users online across the cluster.
type RedisPresence struct {
	rdb      *redis.Client
	prefix   string
	serverID string
	ttl      time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	latest []string
}

type PresenceUpdate struct {
	ServerID string   `json:"serverId"`
	Users    []string `json:"users"`
}

func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedisPresence(rdb *redis.Client, prefix, serverID string, ttl time.Duration, log zerolog.Logger) *RedisPresence {
	return &RedisPresence{
		rdb:      rdb,
		prefix:   prefix,
		serverID: serverID,
		ttl:      ttl,
		log:      log,
		latest:   []string{},
	}
}

func (p *RedisPresence) key() string {
	return presenceKey(p.prefix, p.serverID)
}

func (p *RedisPresence) channel() string {
	return p.prefix + ":presence"
}

func presenceKey(prefix, serverID string) string {
	return prefix + ":presence:" + serverID
}

// Publish implements Tap. Only users events change the mirror.
func (p *RedisPresence) Publish(ctx context.Context, evt entity.OutboundEvent) error {
	if evt.Event != entity.EventUsers {
		return nil
	}
	users, ok := evt.Data.([]string)
	if !ok {
		return fmt.Errorf("users event carries %T", evt.Data)
	}

	p.mu.Lock()
	p.latest = users
	p.mu.Unlock()

	payload, err := json.Marshal(PresenceUpdate{ServerID: p.serverID, Users: users})
	if err != nil {
		return err
	}
	if err := p.store(ctx, users); err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel(), payload).Err(); err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

func (p *RedisPresence) store(ctx context.Context, users []string) error {
	value, err := json.Marshal(users)
	if err != nil {
		return err
	}
	if err := p.rdb.Set(ctx, p.key(), value, p.ttl).Err(); err != nil {
		return fmt.Errorf("store presence: %w", err)
	}
	return nil
}

// KeepAlive rewrites the mirror key before its TTL lapses until ctx is done.
func (p *RedisPresence) KeepAlive(ctx context.Context) {
	interval := p.ttl / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			users := p.latest
			p.mu.Unlock()

			if err := p.store(ctx, users); err != nil {
				p.log.Warn().Err(err).Msg("refresh presence mirror")
			}
		}
	}
}

// ClusterOnline returns the sorted union of every instance's mirrored set.
func (p *RedisPresence) ClusterOnline(ctx context.Context) ([]string, error) {
	var keys []string
	iter := p.rdb.Scan(ctx, 0, presenceKey(p.prefix, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan presence keys: %w", err)
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	values, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read presence keys: %w", err)
	}
	return mergePresence(values, p.log), nil
}

// Clear removes this instance's mirror key.
func (p *RedisPresence) Clear(ctx context.Context) error {
	return p.rdb.Del(ctx, p.key()).Err()
}

func mergePresence(values []any, log zerolog.Logger) []string {
	seen := make(map[string]struct{})
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Key expired between SCAN and MGET.
			continue
		}
		var users []string
		if err := json.Unmarshal([]byte(raw), &users); err != nil {
			log.Warn().Err(err).Msg("skip malformed presence entry")
			continue
		}
		for _, u := range users {
			seen[u] = struct{}{}
		}
	}

	merged := make([]string, 0, len(seen))
	for u := range seen {
		merged = append(merged, u)
	}
	sort.Strings(merged)
	return merged
}
