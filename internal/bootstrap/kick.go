package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/internal/config"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/service/ledger"
	"github.com/specbot/kickbot/pkg/service/notify"
)

// InitLedger opens the kick ledger selected by LEDGER_BACKEND. It returns
// nil for the "none" backend, which turns repeat offender tracking off.
//
// ============================================================
// DEVELOPER: Ledger backends
// ============================================================
// - redis:  shared history, needs the Redis client from app.New
// - sqlite: single-file history at LEDGER_PATH
// - none:   no history
// ============================================================
func InitLedger(ctx context.Context, cfg *config.Config, redisClient redis.UniversalClient) (service.LedgerStore, error) {
	switch cfg.LedgerBackend {
	case config.LedgerRedis:
		if redisClient == nil {
			return nil, errors.New("redis ledger needs a Redis client")
		}
		logrus.Infof("using Redis kick ledger")
		return ledger.NewRedisLedger(redisClient, ledger.RedisLedgerConfig{TTL: cfg.LedgerTTL}), nil
	case config.LedgerSQLite:
		l, err := ledger.NewSQLiteLedger(ctx, cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.LedgerNone:
		logrus.Warn("kick ledger disabled, repeat offenders will not be announced")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// InitNotifier routes kick and monitoring announcements to their webhooks.
// Channels without a webhook are logged instead.
func InitNotifier(cfg *config.Config) service.NotificationSink {
	router := notify.NewRouter(notify.LogSink{})

	if cfg.KickWebhookURL != "" {
		router.Route(service.ChannelKicks, notify.NewWebhook(cfg.KickWebhookURL, cfg.MentionRoleID, notify.DefaultTimeout))
		logrus.Infof("kick announcements go to webhook")
	}
	if cfg.MonitoringWebhookURL != "" {
		router.Route(service.ChannelMonitoring, notify.NewWebhook(cfg.MonitoringWebhookURL, cfg.MentionRoleID, notify.DefaultTimeout))
		logrus.Infof("monitoring announcements go to webhook")
	}
	return router
}
