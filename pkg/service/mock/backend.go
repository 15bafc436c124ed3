package mock

import (
	"context"
	"sync"

	"github.com/specbot/kickbot/pkg/roster"
)

// KickBackend is an in-memory service.KickBackend for tests and dry runs.
type KickBackend struct {
	// KickFunc is called when Kick is invoked, if set
	KickFunc func(ctx context.Context, gameID, playerID, reason string) error

	// DefaultError is returned when KickFunc is nil
	DefaultError error

	mu        sync.Mutex
	kickCalls []KickCall
}

// KickCall tracks parameters for Kick calls
type KickCall struct {
	GameID   string
	PlayerID string
	Reason   string
}

func (m *KickBackend) Kick(ctx context.Context, gameID, playerID, reason string) error {
	m.mu.Lock()
	m.kickCalls = append(m.kickCalls, KickCall{GameID: gameID, PlayerID: playerID, Reason: reason})
	m.mu.Unlock()

	if m.KickFunc != nil {
		return m.KickFunc(ctx, gameID, playerID, reason)
	}
	return m.DefaultError
}

// KickCalls returns a copy of the recorded calls.
func (m *KickBackend) KickCalls() []KickCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]KickCall(nil), m.kickCalls...)
}

// RosterSource serves whatever roster was last set.
type RosterSource struct {
	// RefreshFunc is called when Refresh is invoked, if set
	RefreshFunc func(ctx context.Context, gameID string) (*roster.TeamRoster, error)

	mu      sync.Mutex
	current *roster.TeamRoster
	calls   int
}

// NewRosterSource creates a source serving r.
func NewRosterSource(r *roster.TeamRoster) *RosterSource {
	return &RosterSource{current: r}
}

// Set replaces the roster served by later refreshes.
func (m *RosterSource) Set(r *roster.TeamRoster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = r
}

func (m *RosterSource) Refresh(ctx context.Context, gameID string) (*roster.TeamRoster, error) {
	m.mu.Lock()
	m.calls++
	current := m.current
	m.mu.Unlock()

	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, gameID)
	}
	if current == nil {
		return &roster.TeamRoster{GameID: gameID}, nil
	}

	// Hand out a copy so callers can't share maps with later Set calls.
	copied := *current
	copied.GameID = gameID
	copied.Team1 = copyTeam(current.Team1)
	copied.Team2 = copyTeam(current.Team2)
	return &copied, nil
}

// Calls returns how many refreshes were made.
func (m *RosterSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func copyTeam(team map[string]string) map[string]string {
	out := make(map[string]string, len(team))
	for k, v := range team {
		out[k] = v
	}
	return out
}
