package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/weapon"
)

func defaults(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		t.Fatalf("failed to parse defaults: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaults(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.PerceptionWorkers != 10 {
		t.Errorf("PerceptionWorkers = %d, expected 10", cfg.PerceptionWorkers)
	}
	if cfg.RosterRefreshInterval != 10*time.Second {
		t.Errorf("RosterRefreshInterval = %v, expected 10s", cfg.RosterRefreshInterval)
	}
	if cfg.PlayerSimilarity != 0.8 || cfg.WeaponSimilarity != 0.7 {
		t.Errorf("similarities = %v/%v, expected 0.8/0.7", cfg.PlayerSimilarity, cfg.WeaponSimilarity)
	}
	if cfg.LedgerBackend != LedgerRedis {
		t.Errorf("LedgerBackend = %q, expected redis", cfg.LedgerBackend)
	}
}

func TestParse_CommandLists(t *testing.T) {
	cfg := &Config{}
	err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{
		"GAME_LAUNCH_COMMAND": "C:/Games/bf1.exe -windowed",
	}})
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if len(cfg.GameLaunchCommand) != 2 || cfg.GameLaunchCommand[1] != "-windowed" {
		t.Errorf("GameLaunchCommand = %v", cfg.GameLaunchCommand)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"grpc port", func(c *Config) { c.GRPCPort = 0 }},
		{"metrics port", func(c *Config) { c.MetricsPort = 70000 }},
		{"mode", func(c *Config) { c.BotMode = "live" }},
		{"workers", func(c *Config) { c.PerceptionWorkers = 0 }},
		{"rotate delay", func(c *Config) { c.RotateDelay = 0 }},
		{"refresh interval", func(c *Config) { c.RosterRefreshInterval = -time.Second }},
		{"kick timeout", func(c *Config) { c.KickTimeout = 0 }},
		{"min players", func(c *Config) { c.MinPlayersForKick = -1 }},
		{"kicks to ping", func(c *Config) { c.KicksToPing = -1 }},
		{"player similarity", func(c *Config) { c.PlayerSimilarity = 1.5 }},
		{"weapon similarity", func(c *Config) { c.WeaponSimilarity = 0 }},
		{"icon probability", func(c *Config) { c.WeaponIconProbability = -0.1 }},
		{"ledger backend", func(c *Config) { c.LedgerBackend = "mongo" }},
		{"gateway without server", func(c *Config) { c.GatewayURL = "https://gw.example" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := defaults(t)
	cfg.GatewayURL = "https://gw.example"
	cfg.ServerName = "![VG]"
	if err := cfg.Validate(); err != nil {
		t.Errorf("gateway with server name: %v", err)
	}
}

const layoutYAML = `
layout:
  player_name:  {x: 1, y: 1, width: 10, height: 10}
  weapon_icon:  {x: 2, y: 2, width: 10, height: 10}
  weapon_slot1: {x: 3, y: 3, width: 10, height: 10}
  weapon_slot2: {x: 4, y: 4, width: 10, height: 10}
catalog:
  smg08:
    label: ${SMG_LABEL:SMG 08}
    names: ["MG 08/18"]
`

func TestParseLayout(t *testing.T) {
	f, err := ParseLayout([]byte(layoutYAML))
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}

	if f.Layout.WeaponSlot2 != (perception.Rect{X: 4, Y: 4, Width: 10, Height: 10}) {
		t.Errorf("WeaponSlot2 = %v", f.Layout.WeaponSlot2)
	}
	if f.Catalog.SMG08.Label != "SMG 08" {
		t.Errorf("SMG08.Label = %q, expected default expansion", f.Catalog.SMG08.Label)
	}
	if len(f.Catalog.SMG08.Names) != 1 {
		t.Errorf("SMG08.Names = %v, expected the file's list", f.Catalog.SMG08.Names)
	}
	// Entries missing from the file keep the stock catalog.
	if f.Catalog.HeavyBomber.Label != weapon.DefaultCatalog().HeavyBomber.Label {
		t.Errorf("HeavyBomber = %+v, expected stock entry", f.Catalog.HeavyBomber)
	}
}

func TestParseLayout_EnvExpansion(t *testing.T) {
	t.Setenv("SMG_LABEL", "SMG08/18")

	f, err := ParseLayout([]byte(layoutYAML))
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	if f.Catalog.SMG08.Label != "SMG08/18" {
		t.Errorf("SMG08.Label = %q, expected env value", f.Catalog.SMG08.Label)
	}
}

func TestParseLayout_Invalid(t *testing.T) {
	_, err := ParseLayout([]byte("layout:\n  player_name: {x: 1, y: 1, width: 0, height: 10}\n"))
	if !errors.Is(err, perception.ErrInvalidLayout) {
		t.Errorf("expected ErrInvalidLayout, got %v", err)
	}

	_, err = ParseLayout([]byte(layoutYAML + "  heavy_bomber:\n    primary_names: []\n"))
	if !errors.Is(err, weapon.ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(layoutYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLayout(path); err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestShippedFiles(t *testing.T) {
	if _, err := LoadLayout("../../config/layout.yaml"); err != nil {
		t.Errorf("config/layout.yaml: %v", err)
	}
}
