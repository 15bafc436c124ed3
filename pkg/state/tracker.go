package state

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/fuzzy"
)

const (
	// MinNameLength is the shortest read that counts as a player name.
	MinNameLength = 3

	noPlayerLimit   = 2
	toggleAfterSame = 2
	crashAfterSame  = 10
)

// Key is an input key the bot presses.
type Key string

const (
	KeyE  Key = "e"
	KeyQ  Key = "q"
	KeyF5 Key = "f5"
)

// Rotation is the spectator rotation bookkeeping.
type Rotation struct {
	Key             Key
	SamePlayerCount int
	NoPlayerCount   int
	LastPlayerName  string
}

// Observation reports what a single name read changed.
type Observation struct {
	// Valid is false when no player name was read; the cycle stops there.
	Valid      bool
	SamePlayer bool
	Toggled    bool
	NewMap     bool
	Crashed    bool
}

// Tracker turns per-cycle name reads into rotation and status changes.
type Tracker struct {
	mu       sync.RWMutex
	rotation Rotation
	status   *BotStatus
	matcher  fuzzy.Matcher
}

// NewTracker creates a tracker that starts rotating with KeyE.
func NewTracker(status *BotStatus, matcher fuzzy.Matcher) *Tracker {
	return &Tracker{
		rotation: Rotation{Key: KeyE},
		status:   status,
		matcher:  matcher,
	}
}

// Observe records the player name read this cycle.
func (t *Tracker) Observe(name string) Observation {
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) < MinNameLength {
		t.mu.Lock()
		t.rotation.NoPlayerCount++
		newMap := t.rotation.NoPlayerCount == noPlayerLimit
		if newMap {
			t.rotation.NoPlayerCount = 0
		}
		t.mu.Unlock()

		if newMap {
			t.status.SetUnless(WaitingForNewMap, Crashed)
		}
		return Observation{NewMap: newMap}
	}

	obs := Observation{Valid: true}

	t.mu.Lock()
	if t.status.SetUnless(Online, Online, Crashed) {
		t.rotation.NoPlayerCount = 0
	}

	if t.matcher.SamePlayer(name, t.rotation.LastPlayerName) {
		obs.SamePlayer = true
		t.rotation.SamePlayerCount++
		switch t.rotation.SamePlayerCount {
		case toggleAfterSame:
			t.rotation.Key = t.rotation.Key.toggled()
			obs.Toggled = true
		case crashAfterSame:
			obs.Crashed = true
		}
	} else {
		t.rotation.SamePlayerCount = 0
	}
	t.rotation.LastPlayerName = name
	t.mu.Unlock()

	t.status.RecordName(name)
	if obs.Crashed {
		logrus.Warnf("spectator stuck on %s for %d cycles", name, crashAfterSame)
		t.status.Set(Crashed)
	}
	return obs
}

// RotateKey returns the key that moves the spectator camera.
func (t *Tracker) RotateKey() Key {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rotation.Key
}

// Rotation returns a copy of the rotation state.
func (t *Tracker) Rotation() Rotation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rotation
}

// Reset clears the counters after the game was restarted.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rotation = Rotation{Key: KeyE}
}

func (k Key) toggled() Key {
	if k == KeyE {
		return KeyQ
	}
	return KeyE
}
