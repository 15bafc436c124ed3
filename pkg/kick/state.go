package kick

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specbot/kickbot/pkg/weapon"
)

// PendingKick is a detection waiting for its player to show up in the roster.
type PendingKick struct {
	Label    string
	Category weapon.Category
}

// State tracks who was kicked this session and who is waiting for a roster match.
type State struct {
	mu      sync.RWMutex
	kicked  map[string]struct{}
	pending map[string]PendingKick
}

// NewState creates empty kick state.
func NewState() *State {
	return &State{
		kicked:  make(map[string]struct{}),
		pending: make(map[string]PendingKick),
	}
}

// IsKicked reports whether name was already kicked.
func (s *State) IsKicked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.kicked[name]
	return ok
}

// MarkKicked adds name to the kicked set. It reports false if name was already there.
func (s *State) MarkKicked(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kicked[name]; ok {
		return false
	}
	s.kicked[name] = struct{}{}
	return true
}

// Unmark removes name from the kicked set.
func (s *State) Unmark(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kicked, name)
}

// Kicked returns the kicked names in sorted order.
func (s *State) Kicked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.kicked))
	for name := range s.kicked {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prune drops kicked names for which keep returns false and returns them.
func (s *State) Prune(keep func(name string) bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted []string
	for name := range s.kicked {
		if !keep(name) {
			delete(s.kicked, name)
			evicted = append(evicted, name)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// SetPending queues or replaces the pending kick of name.
func (s *State) SetPending(name string, p PendingKick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[name] = p
}

// RemovePending drops the pending kick of name and reports whether it existed.
func (s *State) RemovePending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[name]
	delete(s.pending, name)
	return ok
}

// Pending returns a copy of the pending kicks.
func (s *State) Pending() map[string]PendingKick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]PendingKick, len(s.pending))
	for name, p := range s.pending {
		out[name] = p
	}
	return out
}

// PendingCount returns the number of pending kicks.
func (s *State) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Stats are the session totals reported at shutdown.
type Stats struct {
	startedAt time.Time
	kicked    atomic.Int64
}

// NewStats starts counting from startedAt.
func NewStats(startedAt time.Time) *Stats {
	return &Stats{startedAt: startedAt}
}

// PlayersKicked returns the number of successful kicks.
func (s *Stats) PlayersKicked() int64 {
	return s.kicked.Load()
}

// StartedAt returns when monitoring began.
func (s *Stats) StartedAt() time.Time {
	return s.startedAt
}

func (s *Stats) recordKick() {
	s.kicked.Add(1)
}
