package mock

import (
	"context"
	"sync"
	"time"

	"github.com/specbot/kickbot/pkg/weapon"
)

// Ledger is an in-memory service.LedgerStore.
type Ledger struct {
	// DefaultError is returned by Append when set
	DefaultError error

	mu      sync.Mutex
	records map[string]map[weapon.Category][]time.Time
}

func (m *Ledger) Append(ctx context.Context, playerName string, category weapon.Category, at time.Time) (int64, error) {
	if m.DefaultError != nil {
		return 0, m.DefaultError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]map[weapon.Category][]time.Time)
	}
	if m.records[playerName] == nil {
		m.records[playerName] = make(map[weapon.Category][]time.Time)
	}
	m.records[playerName][category] = append(m.records[playerName][category], at)

	var total int64
	for _, times := range m.records[playerName] {
		total += int64(len(times))
	}
	return total, nil
}

func (m *Ledger) History(ctx context.Context, playerName string) (map[weapon.Category][]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[weapon.Category][]time.Time)
	for c, times := range m.records[playerName] {
		out[c] = append([]time.Time(nil), times...)
	}
	return out, nil
}

func (m *Ledger) Close() error {
	return nil
}
