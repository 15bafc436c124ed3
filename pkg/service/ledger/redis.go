// Package ledger stores the lifetime kick history of every player.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/weapon"
)

const (
	// KeyPrefix is the prefix for all ledger keys
	KeyPrefix = "kickbot:ledger:"

	totalField = "total"
)

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	MaxRetries uint64
}

// NewRedisClient connects to Redis, retrying the first ping with exponential backoff.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	addr := cfg.Host + ":" + cfg.Port
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		b,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logrus.Infof("connected to Redis at %s", addr)
	return client, nil
}

// RedisLedgerConfig tunes the Redis ledger.
type RedisLedgerConfig struct {
	// TTL expires a player's history after that long without kicks. Zero keeps it forever.
	TTL time.Duration
}

// RedisLedger keeps one list of kick times per player and category plus a
// hash of per category counts.
type RedisLedger struct {
	client redis.UniversalClient
	cfg    RedisLedgerConfig
}

// NewRedisLedger creates a ledger over client. The client stays owned by the caller.
func NewRedisLedger(client redis.UniversalClient, cfg RedisLedgerConfig) *RedisLedger {
	return &RedisLedger{client: client, cfg: cfg}
}

func makeTotalsKey(player string) string {
	return fmt.Sprintf("%s%s:totals", KeyPrefix, player)
}

func makeKicksKey(player string, category weapon.Category) string {
	return fmt.Sprintf("%s%s:kicks:%s", KeyPrefix, player, category)
}

// Append records a kick and returns the player's lifetime kick count.
func (l *RedisLedger) Append(ctx context.Context, player string, category weapon.Category, at time.Time) (int64, error) {
	totalsKey := makeTotalsKey(player)
	kicksKey := makeKicksKey(player, category)

	var total *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, kicksKey, at.UTC().Format(time.RFC3339Nano))
		pipe.HIncrBy(ctx, totalsKey, category.String(), 1)
		total = pipe.HIncrBy(ctx, totalsKey, totalField, 1)
		if l.cfg.TTL > 0 {
			pipe.Expire(ctx, kicksKey, l.cfg.TTL)
			pipe.Expire(ctx, totalsKey, l.cfg.TTL)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record kick of %s: %w", player, err)
	}

	logrus.Debugf("recorded %s kick of %s", category, player)
	return total.Val(), nil
}

// History returns the kick times of a player per category.
func (l *RedisLedger) History(ctx context.Context, player string) (map[weapon.Category][]time.Time, error) {
	counts, err := l.client.HGetAll(ctx, makeTotalsKey(player)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get kick totals of %s: %w", player, err)
	}

	history := make(map[weapon.Category][]time.Time)
	for field := range counts {
		if field == totalField {
			continue
		}
		category, err := weapon.ParseCategory(field)
		if err != nil {
			// Skip invalid entries
			continue
		}

		raw, err := l.client.LRange(ctx, makeKicksKey(player, category), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get %s kicks of %s: %w", category, player, err)
		}
		history[category] = parseTimes(raw)
	}
	return history, nil
}

// Total returns the lifetime kick count of a player.
func (l *RedisLedger) Total(ctx context.Context, player string) (int64, error) {
	v, err := l.client.HGet(ctx, makeTotalsKey(player), totalField).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get kick total of %s: %w", player, err)
	}
	return strconv.ParseInt(v, 10, 64)
}

// Close is a no-op; the Redis client is closed by its owner.
func (l *RedisLedger) Close() error {
	return nil
}

func parseTimes(raw []string) []time.Time {
	times := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		at, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			continue
		}
		times = append(times, at)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}
