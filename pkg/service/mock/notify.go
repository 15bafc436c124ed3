package mock

import (
	"context"
	"sync"

	"github.com/specbot/kickbot/pkg/service"
)

// Notifier records announcements.
type Notifier struct {
	mu     sync.Mutex
	events []service.Event
}

func (m *Notifier) Announce(ctx context.Context, event service.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded announcements.
func (m *Notifier) Events() []service.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Event(nil), m.events...)
}

// Kinds returns the kinds of the recorded announcements in order.
func (m *Notifier) Kinds() []service.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]service.EventKind, len(m.events))
	for i, e := range m.events {
		kinds[i] = e.Kind
	}
	return kinds
}
