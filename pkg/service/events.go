package service

import (
	"time"

	"github.com/specbot/kickbot/pkg/weapon"
)

// EventKind identifies an announcement.
type EventKind int

const (
	EventMonitoringStarted EventKind = iota
	EventShutdown
	EventBotCrashed
	EventKickSucceeded
	EventKickFailed
	EventRepeatOffender
)

func (k EventKind) String() string {
	switch k {
	case EventMonitoringStarted:
		return "monitoring_started"
	case EventShutdown:
		return "shutdown"
	case EventBotCrashed:
		return "bot_crashed"
	case EventKickSucceeded:
		return "kick_succeeded"
	case EventKickFailed:
		return "kick_failed"
	case EventRepeatOffender:
		return "repeat_offender"
	default:
		return "unknown"
	}
}

// Channel is where an announcement is delivered.
type Channel int

const (
	ChannelMonitoring Channel = iota
	ChannelKicks
)

// Event is an announcement. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	At   time.Time

	PlayerName string
	PlayerID   string
	Reason     string
	Err        error

	LifetimeKicks int64
	History       map[weapon.Category][]time.Time

	Uptime        time.Duration
	PlayersKicked int64
}

// Channel returns the channel the event belongs to.
func (e Event) Channel() Channel {
	switch e.Kind {
	case EventKickSucceeded, EventKickFailed, EventRepeatOffender:
		return ChannelKicks
	default:
		return ChannelMonitoring
	}
}
