package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/roster"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/state"
)

// Supervisor brings the game back after the tracker declared it crashed.
type Supervisor struct {
	process  service.GameProcess
	notifier service.NotificationSink
	store    *roster.Store
	tracker  *state.Tracker
	status   *state.BotStatus
}

// NewSupervisor creates a crash supervisor.
func NewSupervisor(process service.GameProcess, notifier service.NotificationSink, store *roster.Store, tracker *state.Tracker, status *state.BotStatus) *Supervisor {
	return &Supervisor{
		process:  process,
		notifier: notifier,
		store:    store,
		tracker:  tracker,
		status:   status,
	}
}

// Recover announces the crash, restarts the game into the watched server and
// moves the bot back to WaitingForBF1. The status stays Crashed on failure.
func (s *Supervisor) Recover(ctx context.Context) error {
	gameID := s.store.GameID()
	logrus.Warnf("game crashed, restarting into %s", gameID)

	if s.notifier != nil {
		s.notifier.Announce(ctx, service.Event{Kind: service.EventBotCrashed, At: time.Now()})
	}

	if err := s.process.Restart(ctx, gameID); err != nil {
		return fmt.Errorf("failed to restart game %s: %w", gameID, err)
	}

	s.tracker.Reset()
	s.status.CompareAndSet(state.Crashed, state.WaitingForBF1)
	logrus.Info("game restarted")
	return nil
}
