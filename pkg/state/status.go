package state

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the bot's operating status.
type Status int

const (
	WaitingForBF1 Status = iota
	Online
	Crashed
	Disabled
	WaitingForNewMap
)

// String returns the status as shown to operators.
func (s Status) String() string {
	switch s {
	case Online:
		return "Online"
	case Crashed:
		return "Crashed"
	case Disabled:
		return "Disabled (Player Count Too Low)"
	case WaitingForNewMap:
		return "Waiting for new map"
	case WaitingForBF1:
		return "Waiting for BF1 window"
	default:
		return "Unknown"
	}
}

// Cycling reports whether spectator cycles run in this status.
func (s Status) Cycling() bool {
	switch s {
	case Online, WaitingForNewMap, WaitingForBF1:
		return true
	default:
		return false
	}
}

// StatusListener is told about every status transition.
type StatusListener func(from, to Status)

// BotStatus holds the current status, when it was entered and the last
// valid player name read.
type BotStatus struct {
	mu            sync.RWMutex
	status        Status
	timerStart    time.Time
	lastValidName string
	listeners     []StatusListener
	now           func() time.Time
}

// NewBotStatus creates a status in WaitingForBF1.
func NewBotStatus() *BotStatus {
	return &BotStatus{
		status:     WaitingForBF1,
		timerStart: time.Now(),
		now:        time.Now,
	}
}

// OnChange registers a listener. Listeners run outside the lock, in the
// goroutine that made the transition.
func (b *BotStatus) OnChange(l StatusListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Get returns the current status.
func (b *BotStatus) Get() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Set moves to status s and restarts the timer. It reports whether the status changed.
func (b *BotStatus) Set(s Status) bool {
	return b.transition(func(current Status) (Status, bool) {
		return s, current != s
	})
}

// SetUnless moves to s unless the current status is one of keep.
func (b *BotStatus) SetUnless(s Status, keep ...Status) bool {
	return b.transition(func(current Status) (Status, bool) {
		for _, k := range keep {
			if current == k {
				return current, false
			}
		}
		return s, current != s
	})
}

// CompareAndSet moves from old to s only if the current status is old.
func (b *BotStatus) CompareAndSet(old, s Status) bool {
	return b.transition(func(current Status) (Status, bool) {
		return s, current == old && current != s
	})
}

func (b *BotStatus) transition(decide func(current Status) (Status, bool)) bool {
	b.mu.Lock()
	from := b.status
	to, changed := decide(from)
	if !changed {
		b.mu.Unlock()
		return false
	}
	b.status = to
	b.timerStart = b.now()
	listeners := append([]StatusListener(nil), b.listeners...)
	b.mu.Unlock()

	logrus.Infof("bot status: %s -> %s", from, to)
	for _, l := range listeners {
		l(from, to)
	}
	return true
}

// RecordName remembers the last valid player name read.
func (b *BotStatus) RecordName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastValidName = name
}

// Snapshot is a consistent copy of the status fields.
type Snapshot struct {
	Status        Status
	Since         time.Time
	LastValidName string
}

// Snapshot returns the current status fields.
func (b *BotStatus) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Status:        b.status,
		Since:         b.timerStart,
		LastValidName: b.lastValidName,
	}
}
