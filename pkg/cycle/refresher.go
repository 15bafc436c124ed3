package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/metrics"
	"github.com/specbot/kickbot/pkg/roster"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/state"
)

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultMinPlayers      = 20

	refreshRetries = 3
)

// RefresherConfig tunes the roster refresher.
type RefresherConfig struct {
	Interval   time.Duration
	MinPlayers int
}

// Refresher keeps the roster store current and gates the bot on player count.
type Refresher struct {
	cfg        RefresherConfig
	source     service.RosterSource
	store      *roster.Store
	status     *state.BotStatus
	refreshed  chan<- struct{}
	newBackOff func() backoff.BackOff
}

// NewRefresher creates a refresher that signals refreshed after every stored roster.
func NewRefresher(cfg RefresherConfig, source service.RosterSource, store *roster.Store, status *state.BotStatus, refreshed chan<- struct{}) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if cfg.MinPlayers < 0 {
		cfg.MinPlayers = 0
	}
	return &Refresher{
		cfg:       cfg,
		source:    source,
		store:     store,
		status:    status,
		refreshed: refreshed,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = cfg.Interval
			return backoff.WithMaxRetries(b, refreshRetries)
		},
	}
}

// Run refreshes once right away and then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := r.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
			logrus.Errorf("roster refresh failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RefreshOnce fetches the roster, stores it, updates the Disabled status
// and notifies the kick coordinator.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	gameID := r.store.GameID()

	var fresh *roster.TeamRoster
	operation := func() error {
		var err error
		fresh, err = r.source.Refresh(ctx, gameID)
		return err
	}
	notify := func(err error, d time.Duration) {
		logrus.Warnf("roster refresh failed, retrying in %s: %v", d, err)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(r.newBackOff(), ctx), notify); err != nil {
		return fmt.Errorf("failed to refresh roster of game %s: %w", gameID, err)
	}
	if fresh == nil {
		return fmt.Errorf("roster source returned no roster for game %s", gameID)
	}

	r.store.Replace(fresh)
	count := fresh.PlayerCount()
	metrics.RosterPlayers.Set(float64(count))
	logrus.Debugf("roster refreshed: %d players on %s", count, fresh.MapName)

	if count < r.cfg.MinPlayers {
		r.status.SetUnless(state.Disabled, state.Crashed)
	} else {
		r.status.CompareAndSet(state.Disabled, state.WaitingForBF1)
	}

	select {
	case r.refreshed <- struct{}{}:
	default:
		// A notification is already queued; it will see this roster.
	}
	return nil
}
