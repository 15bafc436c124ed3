package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/weapon"
)

var (
	_ service.LedgerStore = (*RedisLedger)(nil)
	_ service.LedgerStore = (*SQLiteLedger)(nil)
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func ledgers(t *testing.T) map[string]service.LedgerStore {
	client, _ := setupTestRedis(t)

	sqlite, err := NewSQLiteLedger(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]service.LedgerStore{
		"redis":  NewRedisLedger(client, RedisLedgerConfig{}),
		"sqlite": sqlite,
	}
}

func TestLedger_AppendAndHistory(t *testing.T) {
	base := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			kicks := []struct {
				category weapon.Category
				at       time.Time
			}{
				{weapon.SMG08, base},
				{weapon.HeavyBomber, base.Add(time.Hour)},
				{weapon.SMG08, base.Add(24 * time.Hour)},
			}
			for i, k := range kicks {
				total, err := l.Append(ctx, "Carl", k.category, k.at)
				if err != nil {
					t.Fatalf("Append() error = %v", err)
				}
				if total != int64(i+1) {
					t.Errorf("Append() total = %d, expected %d", total, i+1)
				}
			}

			if total, err := l.Append(ctx, "Alice", weapon.LMG, base); err != nil || total != 1 {
				t.Errorf("Append(Alice) = %d, %v, expected 1", total, err)
			}

			history, err := l.History(ctx, "Carl")
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(history) != 2 {
				t.Fatalf("History() has %d categories, expected 2", len(history))
			}
			smg := history[weapon.SMG08]
			if len(smg) != 2 || !smg[0].Equal(base) || !smg[1].Equal(base.Add(24*time.Hour)) {
				t.Errorf("History()[smg08] = %v", smg)
			}
			if bomber := history[weapon.HeavyBomber]; len(bomber) != 1 || !bomber[0].Equal(base.Add(time.Hour)) {
				t.Errorf("History()[heavy_bomber] = %v", bomber)
			}
		})
	}
}

func TestLedger_UnknownPlayer(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			history, err := l.History(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(history) != 0 {
				t.Errorf("History() = %v, expected empty", history)
			}
		})
	}
}

func TestRedisLedger_KeysAndTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewRedisLedger(client, RedisLedgerConfig{TTL: time.Hour})
	ctx := context.Background()

	if _, err := l.Append(ctx, "Carl", weapon.SMG08, time.Now()); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if !mr.Exists("kickbot:ledger:Carl:kicks:smg08") {
		t.Error("expected kicks list to exist")
	}
	if ttl := mr.TTL("kickbot:ledger:Carl:totals"); ttl != time.Hour {
		t.Errorf("totals TTL = %v, expected 1h", ttl)
	}

	total, err := l.Total(ctx, "Carl")
	if err != nil || total != 1 {
		t.Errorf("Total() = %d, %v, expected 1", total, err)
	}
	if total, err := l.Total(ctx, "nobody"); err != nil || total != 0 {
		t.Errorf("Total(nobody) = %d, %v, expected 0", total, err)
	}
}

func TestRedisLedger_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewRedisLedger(client, RedisLedgerConfig{})
	mr.Close()

	if _, err := l.Append(context.Background(), "Carl", weapon.SMG08, time.Now()); err == nil {
		t.Error("expected Append() to fail when Redis is down")
	}
}

func TestNewRedisClient(t *testing.T) {
	_, mr := setupTestRedis(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Host: mr.Host(), Port: mr.Port(), MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	if !NewHealthChecker(client).IsHealthy(context.Background()) {
		t.Error("expected Redis to be healthy")
	}
}

func TestHealthChecker_Unhealthy(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	if NewHealthChecker(client).IsHealthy(context.Background()) {
		t.Error("expected Redis to be unhealthy")
	}
}

func TestNewSQLiteLedger_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteLedger(context.Background(), " "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSQLiteLedger_PersistsToFile(t *testing.T) {
	path := t.TempDir() + "/data/ledger.db"
	ctx := context.Background()

	l, err := NewSQLiteLedger(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	if _, err := l.Append(ctx, "Carl", weapon.LMG, time.Now()); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	l.Close()

	l, err = NewSQLiteLedger(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer l.Close()

	total, err := l.Append(ctx, "Carl", weapon.LMG, time.Now())
	if err != nil || total != 2 {
		t.Errorf("Append() after reopen = %d, %v, expected 2", total, err)
	}
}
