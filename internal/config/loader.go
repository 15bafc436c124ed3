// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs range and cross-field checks on the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid GRPC_PORT: %d (must be 1-65535)", c.GRPCPort)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.BotMode != ModeReplay {
		return fmt.Errorf("invalid BOT_MODE: %q (supported: %s)", c.BotMode, ModeReplay)
	}

	if c.PerceptionWorkers < 1 {
		return fmt.Errorf("invalid PERCEPTION_WORKERS: %d (must be at least 1)", c.PerceptionWorkers)
	}
	if c.RotateDelay <= 0 {
		return fmt.Errorf("invalid ROTATE_DELAY: %s (must be positive)", c.RotateDelay)
	}
	if c.RosterRefreshInterval <= 0 {
		return fmt.Errorf("invalid ROSTER_REFRESH_INTERVAL: %s (must be positive)", c.RosterRefreshInterval)
	}
	if c.KickTimeout <= 0 {
		return fmt.Errorf("invalid KICK_TIMEOUT: %s (must be positive)", c.KickTimeout)
	}
	if c.MinPlayersForKick < 0 {
		return fmt.Errorf("invalid MIN_PLAYERS_FOR_KICK: %d (must be non-negative)", c.MinPlayersForKick)
	}
	if c.KicksToPing < 0 {
		return fmt.Errorf("invalid KICKS_TO_PING: %d (must be non-negative)", c.KicksToPing)
	}

	if c.PlayerSimilarity <= 0 || c.PlayerSimilarity > 1 {
		return fmt.Errorf("invalid PLAYER_SIMILARITY: %v (must be in (0, 1])", c.PlayerSimilarity)
	}
	if c.WeaponSimilarity <= 0 || c.WeaponSimilarity > 1 {
		return fmt.Errorf("invalid WEAPON_SIMILARITY: %v (must be in (0, 1])", c.WeaponSimilarity)
	}
	if c.WeaponIconProbability < 0 || c.WeaponIconProbability > 1 {
		return fmt.Errorf("invalid WEAPON_ICON_PROBABILITY: %v (must be in [0, 1])", c.WeaponIconProbability)
	}

	switch c.LedgerBackend {
	case LedgerRedis, LedgerSQLite, LedgerNone:
	default:
		return fmt.Errorf("invalid LEDGER_BACKEND: %q (supported: redis, sqlite, none)", c.LedgerBackend)
	}

	if c.GatewayURL != "" && c.GameID == "" && c.ServerName == "" {
		return fmt.Errorf("GAME_ID or SERVER_NAME is required when GATEWAY_URL is set")
	}

	return nil
}
