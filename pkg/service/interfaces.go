package service

import (
	"context"
	"time"

	"github.com/specbot/kickbot/pkg/roster"
	"github.com/specbot/kickbot/pkg/state"
	"github.com/specbot/kickbot/pkg/weapon"
)

// Service interfaces for the collaborators the bot talks to.
//
// Production adapters live in the subpackages (gateway, notify, ledger,
// local); mock holds in-memory fakes for tests and dry runs.

// KickBackend removes a player from the game server.
type KickBackend interface {
	Kick(ctx context.Context, gameID, playerID, reason string) error
}

// RosterSource fetches the current server roster.
type RosterSource interface {
	Refresh(ctx context.Context, gameID string) (*roster.TeamRoster, error)
}

// NotificationSink announces bot events. Delivery failures are logged by
// the sink and never returned.
type NotificationSink interface {
	Announce(ctx context.Context, event Event)
}

// LedgerStore keeps the kick history of every player.
type LedgerStore interface {
	// Append records a kick and returns the player's lifetime kick count.
	Append(ctx context.Context, playerName string, category weapon.Category, at time.Time) (int64, error)
	// History returns the kick times of a player per category.
	History(ctx context.Context, playerName string) (map[weapon.Category][]time.Time, error)
	Close() error
}

// KeyPresser sends keyboard input to the game window.
type KeyPresser interface {
	Press(ctx context.Context, key state.Key) error
	Release(ctx context.Context, key state.Key) error
}

// WindowProbe tells whether the game window has focus.
type WindowProbe interface {
	Focused(ctx context.Context) bool
}

// GameProcess restarts the game client.
type GameProcess interface {
	// Restart kills the game, relaunches it into gameID and returns once it runs again.
	Restart(ctx context.Context, gameID string) error
}
