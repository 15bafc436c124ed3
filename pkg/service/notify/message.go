// Package notify delivers bot announcements to chat webhooks.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/weapon"
)

// Username is the display name messages are posted under.
const Username = "Spec Bot"

// Embed colours.
const (
	ColorGreen = 0x1F8B4C
	ColorRed   = 0x992D22
)

// Message is a webhook execution payload.
type Message struct {
	Username string  `json:"username"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color"`
}

// Render turns an event into the messages that announce it. mentionRole,
// when set, is pinged on repeat offender announcements.
func Render(e service.Event, mentionRole string) []Message {
	switch e.Kind {
	case service.EventMonitoringStarted:
		return embed("Now Monitoring", "Began monitoring at "+e.At.Format("15:04:05"), ColorGreen)
	case service.EventShutdown:
		desc := fmt.Sprintf("Uptime: %s\n\n Kicked %s", FormatUptime(e.Uptime), plural(e.PlayersKicked, "player"))
		return embed("Stopped Monitoring", desc, ColorRed)
	case service.EventBotCrashed:
		return embed("", "BF1 Crashed, restarting...", ColorRed)
	case service.EventKickSucceeded:
		desc := fmt.Sprintf("Name: %s\nReason: %s\n PID: %s", e.PlayerName, e.Reason, e.PlayerID)
		return embed("Kick Success", desc, ColorGreen)
	case service.EventKickFailed:
		desc := fmt.Sprintf("Name: %s\nReason: %s\n PID: %s\n Error: %v", e.PlayerName, e.Reason, e.PlayerID, e.Err)
		return embed("Kick Failed", desc, ColorRed)
	case service.EventRepeatOffender:
		return repeatOffender(e, mentionRole)
	default:
		return nil
	}
}

func embed(title, description string, color int) []Message {
	return []Message{{
		Username: Username,
		Embeds:   []Embed{{Title: title, Description: description, Color: color}},
	}}
}

func repeatOffender(e service.Event, mentionRole string) []Message {
	alert := Message{
		Username: Username,
		Embeds: []Embed{{
			Title:       "Multiple Kicks",
			Description: fmt.Sprintf("Player`%s`\nPID:`%s`\n has %d lifetime kicks", e.PlayerName, e.PlayerID, e.LifetimeKicks),
			Color:       ColorRed,
		}},
	}
	if mentionRole != "" {
		alert.Content = fmt.Sprintf("<@&%s>\n", mentionRole)
	}

	msgs := []Message{alert}
	if len(e.History) > 0 {
		msgs = append(msgs, Message{Username: Username, Content: "```\n" + FormatHistory(e.History) + "```"})
	}
	return msgs
}

// FormatHistory lists kick dates per category, one category per line.
func FormatHistory(history map[weapon.Category][]time.Time) string {
	categories := make([]weapon.Category, 0, len(history))
	for c := range history {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var b strings.Builder
	for _, c := range categories {
		dates := make([]string, len(history[c]))
		for i, at := range history[c] {
			dates[i] = at.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "%s: %s\n", c, strings.Join(dates, ", "))
	}
	return b.String()
}

// FormatUptime renders d as hours and minutes, e.g. "2 hours and 5 minutes".
func FormatUptime(d time.Duration) string {
	hours := int64(d / time.Hour)
	minutes := int64(d/time.Minute) % 60
	if hours == 0 {
		return plural(minutes, "minute")
	}
	return plural(hours, "hour") + " and " + plural(minutes, "minute")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
