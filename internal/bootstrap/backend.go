package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/internal/config"
	"github.com/specbot/kickbot/pkg/perception/replay"
	"github.com/specbot/kickbot/pkg/roster"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/service/gateway"
	"github.com/specbot/kickbot/pkg/service/mock"
)

// dryRunGameID is used when neither GAME_ID nor a gateway is configured.
const dryRunGameID = "dry-run"

// Backend is the kick target and roster source of the watched server.
type Backend struct {
	GameID string
	Kicker service.KickBackend
	Roster service.RosterSource
}

// InitBackend connects the bot to the game backend.
//
// ============================================================
// DEVELOPER: Backend selection
// ============================================================
// With GATEWAY_URL set, kicks and roster refreshes go to the game
// gateway. SERVER_NAME is resolved to a game id when GAME_ID is
// empty.
//
// Without it the bot runs dry: kicks are only recorded in memory
// and the roster is the one from the replay scenario.
// ============================================================
func InitBackend(ctx context.Context, cfg *config.Config, scenario *replay.Scenario) (*Backend, error) {
	if cfg.GatewayURL == "" {
		gameID := cfg.GameID
		if gameID == "" {
			gameID = dryRunGameID
		}
		logrus.Warnf("GATEWAY_URL not set, running dry against game %s", gameID)
		return &Backend{
			GameID: gameID,
			Kicker: &mock.KickBackend{},
			Roster: mock.NewRosterSource(scenarioRoster(scenario)),
		}, nil
	}

	client := gateway.NewClient(gateway.Config{
		RPCURL:     cfg.GatewayURL,
		PlayersURL: cfg.GatewayPlayersURL,
		Session:    cfg.GatewaySession,
		Timeout:    cfg.GatewayTimeout,
	})

	gameID := cfg.GameID
	if gameID == "" {
		if cfg.ServerName == "" {
			return nil, errors.New("GAME_ID or SERVER_NAME is required with a gateway")
		}
		id, err := client.FindServer(ctx, cfg.ServerName)
		if err != nil {
			return nil, fmt.Errorf("failed to find server %q: %w", cfg.ServerName, err)
		}
		gameID = id
		logrus.Infof("server %q has game id %s", cfg.ServerName, gameID)
	}

	logrus.Infof("using gateway %s for game %s", cfg.GatewayURL, gameID)
	return &Backend{GameID: gameID, Kicker: client, Roster: client}, nil
}

func scenarioRoster(s *replay.Scenario) *roster.TeamRoster {
	if s == nil {
		return nil
	}
	r := s.Roster
	return &roster.TeamRoster{
		ServerName:     r.ServerName,
		MapName:        r.MapName,
		Team1Name:      "Team 1",
		Team2Name:      "Team 2",
		Team1:          map[string]string(r.Team1),
		Team2:          map[string]string(r.Team2),
		CurrentPlayers: len(r.Team1) + len(r.Team2),
		MaxPlayers:     r.MaxPlayers,
	}
}
