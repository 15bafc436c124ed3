// Package kick decides which detected players get kicked and carries the
// kick requests out.
package kick

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/common"
	"github.com/specbot/kickbot/pkg/metrics"
	"github.com/specbot/kickbot/pkg/roster"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/weapon"
)

// DefaultTimeout bounds one kick request including its announcements.
const DefaultTimeout = 15 * time.Second

// Violation is a banned weapon seen on a player during one cycle.
type Violation struct {
	PlayerName string
	Label      string
	Category   weapon.Category
	DetectedAt time.Time
}

// Reason returns the kick reason shown to the player.
func Reason(label string) string {
	return fmt.Sprintf("No %s, Read Rules", label)
}

// Outcome is what ResolveAndKick did with a violation.
type Outcome int

const (
	// Skipped means the player was already kicked or the event was unusable.
	Skipped Outcome = iota
	// Dispatched means a kick request was started.
	Dispatched
	// Queued means the player was not in the roster and now waits for a refresh.
	Queued
	// Dropped means a pending retry still found no roster match.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Dispatched:
		return "dispatched"
	case Queued:
		return "queued"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Dependencies are the external services a coordinator calls.
type Dependencies struct {
	Backend  service.KickBackend
	Ledger   service.LedgerStore
	Notifier service.NotificationSink
}

// Config tunes the coordinator.
type Config struct {
	// KicksToPing triggers a repeat offender announcement every that many
	// lifetime kicks of one player. Zero disables it.
	KicksToPing int64
	Timeout     time.Duration
}

// Coordinator matches violations against the roster and dispatches kicks.
type Coordinator struct {
	cfg        Config
	deps       Dependencies
	state      *State
	roster     *roster.Store
	reconciler roster.Reconciler
	stats      *Stats
	wg         sync.WaitGroup
	now        func() time.Time
}

// NewCoordinator creates a coordinator over shared kick state and roster store.
func NewCoordinator(cfg Config, deps Dependencies, state *State, store *roster.Store, reconciler roster.Reconciler, stats *Stats) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Coordinator{
		cfg:        cfg,
		deps:       deps,
		state:      state,
		roster:     store,
		reconciler: reconciler,
		stats:      stats,
		now:        time.Now,
	}
}

// Run handles violations and roster refresh notifications until ctx is done.
func (c *Coordinator) Run(ctx context.Context, violations <-chan Violation, refreshed <-chan struct{}) {
	logrus.Info("kick coordinator started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("kick coordinator stopped")
			return
		case v := <-violations:
			c.ResolveAndKick(ctx, v, false)
		case <-refreshed:
			c.Reconcile(ctx)
		}
	}
}

// Reconcile consumes a fresh roster: it forgets kicked players who left and
// retries every pending kick once.
func (c *Coordinator) Reconcile(ctx context.Context) {
	snapshot, dirty := c.roster.ConsumeDirty()
	if dirty {
		c.PruneAlreadyKicked(snapshot)
	}

	for name, p := range c.state.Pending() {
		c.ResolveAndKick(ctx, Violation{PlayerName: name, Label: p.Label, Category: p.Category}, true)
	}
}

// PruneAlreadyKicked drops kicked players absent from both teams of r, so
// they can be kicked again if they rejoin.
func (c *Coordinator) PruneAlreadyKicked(r *roster.TeamRoster) {
	if r == nil {
		return
	}
	evicted := c.state.Prune(r.Contains)
	if len(evicted) > 0 {
		logrus.Debugf("forgot %d kicked players no longer on the server: %v", len(evicted), evicted)
	}
}

// ResolveAndKick looks the violator up in the current roster and starts a
// kick if found. Live detections that can't be matched wait for the next
// refresh; a pending retry that still can't be matched is dropped.
func (c *Coordinator) ResolveAndKick(ctx context.Context, v Violation, fromPending bool) Outcome {
	if v.PlayerName == "" || !v.Category.Banned() {
		logrus.Errorf("%v: ignoring violation %+v", ErrInvariant, v)
		return Skipped
	}

	if c.state.IsKicked(v.PlayerName) {
		if fromPending {
			c.removePending(v.PlayerName)
		}
		return Skipped
	}

	match, ok := c.reconciler.Resolve(c.roster.Snapshot(), v.PlayerName)
	if !ok {
		if fromPending {
			c.removePending(v.PlayerName)
			logrus.Infof("dropping pending kick of %s: still not in roster", v.PlayerName)
			return Dropped
		}
		c.state.SetPending(v.PlayerName, PendingKick{Label: v.Label, Category: v.Category})
		metrics.PendingKicks.Set(float64(c.state.PendingCount()))
		metrics.KicksTotal.WithLabelValues(metrics.OutcomeQueued).Inc()
		logrus.Infof("%s not in roster, kick for %s queued", v.PlayerName, v.Label)
		return Queued
	}

	if fromPending {
		c.removePending(v.PlayerName)
	}
	if !c.state.MarkKicked(match.Name) {
		return Skipped
	}

	c.dispatch(ctx, c.roster.GameID(), match, v)
	return Dispatched
}

func (c *Coordinator) removePending(name string) {
	if c.state.RemovePending(name) {
		metrics.PendingKicks.Set(float64(c.state.PendingCount()))
	}
}

// dispatch sends the kick in its own goroutine. The request outlives ctx so
// that a kick already decided is not cut off by shutdown.
func (c *Coordinator) dispatch(ctx context.Context, gameID string, match roster.Match, v Violation) {
	reason := Reason(v.Label)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		kickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()

		scope := common.NewScope(kickCtx, "kick.dispatch")
		defer scope.Finish()
		scope.WithField("player", match.Name).WithField("category", v.Category)

		scope.Log.Infof("kicking %s (%s): %s", match.Name, match.ID, reason)
		if err := c.deps.Backend.Kick(scope.Ctx, gameID, match.ID, reason); err != nil {
			err = fmt.Errorf("%w: %w", ErrBackend, err)
			scope.TraceError(err)
			scope.Log.Errorf("kick of %s failed: %v", match.Name, err)
			metrics.KicksTotal.WithLabelValues(metrics.OutcomeFailure).Inc()

			// Let a later cycle try again.
			c.state.Unmark(match.Name)

			c.announce(scope.Ctx, service.Event{
				Kind:       service.EventKickFailed,
				PlayerName: match.Name,
				PlayerID:   match.ID,
				Reason:     reason,
				Err:        err,
			})
			return
		}

		c.stats.recordKick()
		metrics.KicksTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		scope.Log.Infof("kicked %s", match.Name)
		total, recorded := c.recordInLedger(scope, match, v.Category)

		c.announce(scope.Ctx, service.Event{
			Kind:       service.EventKickSucceeded,
			PlayerName: match.Name,
			PlayerID:   match.ID,
			Reason:     reason,
		})

		if recorded && c.cfg.KicksToPing > 0 && total%c.cfg.KicksToPing == 0 {
			c.announceRepeatOffender(scope, match, total)
		}
	}()
}

// recordInLedger appends the kick and returns the player's lifetime total.
func (c *Coordinator) recordInLedger(scope *common.Scope, match roster.Match, category weapon.Category) (int64, bool) {
	if c.deps.Ledger == nil {
		return 0, false
	}

	total, err := c.deps.Ledger.Append(scope.Ctx, match.Name, category, c.now())
	if err != nil {
		scope.Log.Warnf("failed to record kick of %s: %v", match.Name, err)
		return 0, false
	}
	return total, true
}

func (c *Coordinator) announceRepeatOffender(scope *common.Scope, match roster.Match, total int64) {
	history, err := c.deps.Ledger.History(scope.Ctx, match.Name)
	if err != nil {
		scope.Log.Warnf("failed to load kick history of %s: %v", match.Name, err)
	}
	c.announce(scope.Ctx, service.Event{
		Kind:          service.EventRepeatOffender,
		PlayerName:    match.Name,
		PlayerID:      match.ID,
		LifetimeKicks: total,
		History:       history,
	})
}

func (c *Coordinator) announce(ctx context.Context, e service.Event) {
	if c.deps.Notifier == nil {
		return
	}
	if e.At.IsZero() {
		e.At = c.now()
	}
	c.deps.Notifier.Announce(ctx, e)
}

// Wait blocks until every dispatched kick has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// State returns the shared kick state.
func (c *Coordinator) State() *State {
	return c.state
}
