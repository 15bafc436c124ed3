// Package roster keeps the latest server roster and resolves OCR-read names
// against it.
package roster

import (
	"sort"
	"sync"
	"time"
)

// TeamRoster is one snapshot of the server roster. Team maps go from player
// name to persona id. Snapshots are never modified once stored.
type TeamRoster struct {
	GameID     string
	ServerName string
	MapName    string
	Team1Name  string
	Team2Name  string
	Team1      map[string]string
	Team2      map[string]string

	CurrentPlayers int
	MaxPlayers     int
	Spectators     int
	Queue          int

	FetchedAt time.Time
}

// PlayerCount returns the number of players on both teams.
func (r *TeamRoster) PlayerCount() int {
	if r == nil {
		return 0
	}
	return len(r.Team1) + len(r.Team2)
}

// Contains reports whether name is an exact key on either team.
func (r *TeamRoster) Contains(name string) bool {
	if r == nil {
		return false
	}
	if _, ok := r.Team1[name]; ok {
		return true
	}
	_, ok := r.Team2[name]
	return ok
}

// sortedNames returns the names of team in a stable order.
func sortedNames(team map[string]string) []string {
	names := make([]string, 0, len(team))
	for name := range team {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store holds the current roster and whether a refresh has not been consumed yet.
type Store struct {
	mu     sync.RWMutex
	roster *TeamRoster
	gameID string
	dirty  bool
}

// NewStore creates an empty store for gameID.
func NewStore(gameID string) *Store {
	return &Store{gameID: gameID}
}

// GameID returns the id of the game being watched.
func (s *Store) GameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameID
}

// Replace stores a freshly refreshed roster and marks it dirty.
func (s *Store) Replace(r *TeamRoster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = r
	if r != nil && r.GameID != "" {
		s.gameID = r.GameID
	}
	s.dirty = true
}

// Snapshot returns the current roster, or nil before the first refresh.
func (s *Store) Snapshot() *TeamRoster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// ConsumeDirty returns the current roster and whether it arrived since the
// last call, clearing the flag.
func (s *Store) ConsumeDirty() (*TeamRoster, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirty := s.dirty
	s.dirty = false
	return s.roster, dirty
}
