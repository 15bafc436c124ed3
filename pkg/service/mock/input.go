package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specbot/kickbot/pkg/state"
)

// Keys records key presses.
type Keys struct {
	// PressFunc is called when Press is invoked, if set
	PressFunc func(ctx context.Context, key state.Key) error

	mu       sync.Mutex
	pressed  []state.Key
	released []state.Key
}

func (m *Keys) Press(ctx context.Context, key state.Key) error {
	m.mu.Lock()
	m.pressed = append(m.pressed, key)
	m.mu.Unlock()
	if m.PressFunc != nil {
		return m.PressFunc(ctx, key)
	}
	return nil
}

func (m *Keys) Release(ctx context.Context, key state.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, key)
	return nil
}

// Pressed returns the pressed keys in order.
func (m *Keys) Pressed() []state.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]state.Key(nil), m.pressed...)
}

// Released returns the released keys in order.
func (m *Keys) Released() []state.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]state.Key(nil), m.released...)
}

// Window is a service.WindowProbe that is focused unless told otherwise.
type Window struct {
	unfocused atomic.Bool
}

func (m *Window) Focused(ctx context.Context) bool {
	return !m.unfocused.Load()
}

// SetFocused changes what Focused reports.
func (m *Window) SetFocused(focused bool) {
	m.unfocused.Store(!focused)
}

// GameProcess records restarts.
type GameProcess struct {
	// RestartFunc is called when Restart is invoked, if set
	RestartFunc func(ctx context.Context, gameID string) error

	mu       sync.Mutex
	restarts []string
}

func (m *GameProcess) Restart(ctx context.Context, gameID string) error {
	m.mu.Lock()
	m.restarts = append(m.restarts, gameID)
	m.mu.Unlock()
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, gameID)
	}
	return nil
}

// Restarts returns the game ids passed to Restart.
func (m *GameProcess) Restarts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.restarts...)
}
