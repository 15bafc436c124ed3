// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Bot modes.
const (
	ModeReplay = "replay"
)

// Ledger backends.
const (
	LedgerRedis  = "redis"
	LedgerSQLite = "sqlite"
	LedgerNone   = "none"
)

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"kickbot"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Bot configuration
	// ============================================================
	BotMode    string `env:"BOT_MODE" envDefault:"replay"`
	ReplayPath string `env:"REPLAY_PATH" envDefault:"config/replay.yaml"`
	LayoutPath string `env:"LAYOUT_PATH" envDefault:"config/layout.yaml"`

	// GameID is the watched server. When empty, ServerName is searched on the gateway.
	GameID     string `env:"GAME_ID"`
	ServerName string `env:"SERVER_NAME"`

	PerceptionWorkers     int           `env:"PERCEPTION_WORKERS" envDefault:"10"`
	RotateDelay           time.Duration `env:"ROTATE_DELAY" envDefault:"1s"`
	RosterRefreshInterval time.Duration `env:"ROSTER_REFRESH_INTERVAL" envDefault:"10s"`
	MinPlayersForKick     int           `env:"MIN_PLAYERS_FOR_KICK" envDefault:"20"`
	KicksToPing           int64         `env:"KICKS_TO_PING" envDefault:"5"`
	KickTimeout           time.Duration `env:"KICK_TIMEOUT" envDefault:"15s"`

	PlayerSimilarity      float64 `env:"PLAYER_SIMILARITY" envDefault:"0.8"`
	WeaponSimilarity      float64 `env:"WEAPON_SIMILARITY" envDefault:"0.7"`
	WeaponIconProbability float32 `env:"WEAPON_ICON_PROBABILITY" envDefault:"0.8"`

	SaveScreenshots bool   `env:"SAVE_SCREENSHOTS" envDefault:"false"`
	ScreenshotDir   string `env:"SCREENSHOT_DIR" envDefault:"screenshots"`

	// Game process control; empty commands only log.
	GameStopCommand   []string `env:"GAME_STOP_COMMAND" envSeparator:" "`
	GameLaunchCommand []string `env:"GAME_LAUNCH_COMMAND" envSeparator:" "`

	// ============================================================
	// Gateway configuration
	// ============================================================
	// Without GATEWAY_URL kicks and roster come from the replay scenario (dry run).
	GatewayURL        string        `env:"GATEWAY_URL"`
	GatewayPlayersURL string        `env:"GATEWAY_PLAYERS_URL" envDefault:"https://api.gametools.network/bf1/players/"`
	GatewaySession    string        `env:"GATEWAY_SESSION"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`

	// ============================================================
	// Notification configuration
	// ============================================================
	KickWebhookURL       string `env:"KICK_WEBHOOK_URL"`
	MonitoringWebhookURL string `env:"MONITORING_WEBHOOK_URL"`
	MentionRoleID        string `env:"MENTION_ROLE_ID"`

	// ============================================================
	// Ledger configuration
	// ============================================================
	LedgerBackend string        `env:"LEDGER_BACKEND" envDefault:"redis"`
	LedgerPath    string        `env:"LEDGER_PATH" envDefault:"data/kick_ledger.db"`
	LedgerTTL     time.Duration `env:"LEDGER_TTL" envDefault:"0s"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries uint64 `env:"REDIS_MAX_RETRIES" envDefault:"5"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	ZipkinURL string `env:"ZIPKIN_URL"`
}
