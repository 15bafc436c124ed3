// Package cycle drives the spectator camera: one control loop presses the
// rotation keys while perception of each frame runs in its own goroutine.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/common"
	"github.com/specbot/kickbot/pkg/kick"
	"github.com/specbot/kickbot/pkg/metrics"
	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/state"
	"github.com/specbot/kickbot/pkg/weapon"
)

const (
	DefaultRotateDelay = time.Second
	DefaultKeyHold     = 50 * time.Millisecond
	DefaultIdlePoll    = time.Second
)

// Config tunes the control loop.
type Config struct {
	RotateDelay     time.Duration
	KeyHold         time.Duration
	IdlePoll        time.Duration
	SaveScreenshots bool
}

func (c *Config) applyDefaults() {
	if c.RotateDelay <= 0 {
		c.RotateDelay = DefaultRotateDelay
	}
	if c.KeyHold <= 0 {
		c.KeyHold = DefaultKeyHold
	}
	if c.IdlePoll <= 0 {
		c.IdlePoll = DefaultIdlePoll
	}
}

// Components are the collaborators of an Orchestrator.
type Components struct {
	Pool       *perception.Pool
	Reader     *perception.Reader
	Identifier *weapon.Identifier
	Tracker    *state.Tracker
	Status     *state.BotStatus
	Keys       service.KeyPresser
	Window     service.WindowProbe
	Supervisor *Supervisor
	// Archiver is optional; it is used only when screenshots are enabled.
	Archiver perception.Archiver
}

// Orchestrator runs spectator cycles.
type Orchestrator struct {
	cfg        Config
	c          Components
	violations chan<- kick.Violation
	wg         sync.WaitGroup
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator that reports detections on violations.
func NewOrchestrator(cfg Config, c Components, violations chan<- kick.Violation) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:        cfg,
		c:          c,
		violations: violations,
		now:        time.Now,
	}
}

// Run loops until ctx is done. Cycles only run while the game window has
// focus and the status allows it; a crashed game is handed to the supervisor.
func (o *Orchestrator) Run(ctx context.Context) error {
	logrus.Info("spectator cycle started")
	for ctx.Err() == nil {
		status := o.c.Status.Get()

		if status == state.Crashed {
			if err := o.c.Supervisor.Recover(ctx); err != nil {
				logrus.Errorf("crash recovery failed: %v", err)
				o.sleep(ctx, o.cfg.IdlePoll)
			}
			continue
		}

		if !o.c.Window.Focused(ctx) {
			o.c.Status.SetUnless(state.WaitingForBF1, state.Disabled, state.Crashed)
			o.sleep(ctx, o.cfg.IdlePoll)
			continue
		}

		if !status.Cycling() {
			o.sleep(ctx, o.cfg.IdlePoll)
			continue
		}

		if err := o.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("cycle failed: %v", err)
		}
	}
	logrus.Info("spectator cycle stopped")
	return nil
}

// Tick runs one cycle: wait, start perception of the current frame in the
// background, then move the camera.
func (o *Orchestrator) Tick(ctx context.Context) error {
	if !o.sleep(ctx, o.cfg.RotateDelay) {
		return ctx.Err()
	}
	metrics.CyclesTotal.Inc()

	lease, err := o.c.Pool.Acquire()
	if err != nil {
		// The camera still has to move.
		logrus.Errorf("no perception worker this cycle: %v", err)
	} else {
		o.wg.Add(1)
		go o.detect(ctx, lease)
	}

	key := o.c.Tracker.RotateKey()
	if o.c.Status.Get() == state.WaitingForNewMap {
		key = state.KeyF5
	}
	return o.pressKey(ctx, key)
}

func (o *Orchestrator) pressKey(ctx context.Context, key state.Key) error {
	if err := o.c.Keys.Press(ctx, key); err != nil {
		return fmt.Errorf("failed to press %s: %w", key, err)
	}
	o.sleep(context.WithoutCancel(ctx), o.cfg.KeyHold)
	if err := o.c.Keys.Release(context.WithoutCancel(ctx), key); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// detect perceives one frame and reports a violation if the frame shows one.
// Nothing is reported when the pool superseded the worker in the meantime.
func (o *Orchestrator) detect(ctx context.Context, lease *perception.Lease) {
	defer o.wg.Done()

	scope := common.NewScope(context.WithoutCancel(ctx), "cycle.detect")
	defer scope.Finish()
	scope.WithField("worker", lease.Worker.ID())

	v, frame, found, err := o.perceive(scope, lease)

	if !o.c.Pool.Release(lease) {
		metrics.DroppedResultsTotal.Inc()
		scope.Log.Debug("worker superseded, dropping result")
		return
	}
	if err != nil {
		metrics.PerceptionFailuresTotal.Inc()
		scope.TraceError(err)
		scope.Log.Warnf("perception failed: %v", err)
		return
	}
	if !found {
		return
	}

	metrics.ViolationsTotal.WithLabelValues(v.Category.String()).Inc()
	scope.Log.Infof("%s is using %s", v.PlayerName, v.Label)
	o.archive(scope, v, frame)

	select {
	case o.violations <- v:
	default:
		scope.Log.Warnf("violation queue full, dropping detection of %s", v.PlayerName)
	}
}

func (o *Orchestrator) perceive(scope *common.Scope, lease *perception.Lease) (kick.Violation, perception.Image, bool, error) {
	ctx := scope.Ctx
	w := lease.Worker

	frame, err := o.c.Reader.Capture(ctx)
	if err != nil {
		return kick.Violation{}, nil, false, err
	}

	name, err := o.c.Reader.PlayerName(ctx, w, frame)
	if err != nil {
		return kick.Violation{}, nil, false, err
	}

	// A superseded worker must not advance the rotation counters.
	if !o.c.Pool.Current(lease) {
		return kick.Violation{}, nil, false, nil
	}
	obs := o.c.Tracker.Observe(name)
	if !obs.Valid {
		return kick.Violation{}, nil, false, nil
	}
	scope.WithField("player", name)

	probability, category, err := o.c.Reader.WeaponIcon(ctx, frame)
	if err != nil {
		return kick.Violation{}, nil, false, err
	}

	detection, found, err := o.c.Identifier.Identify(ctx, probability, category, o.c.Reader.Slots(w, frame))
	if err != nil || !found {
		return kick.Violation{}, nil, false, err
	}

	return kick.Violation{
		PlayerName: name,
		Label:      detection.Label,
		Category:   detection.Category,
		DetectedAt: o.now(),
	}, frame, true, nil
}

func (o *Orchestrator) archive(scope *common.Scope, v kick.Violation, frame perception.Image) {
	if !o.cfg.SaveScreenshots || o.c.Archiver == nil {
		return
	}
	name := fmt.Sprintf("%s-%s-%s", v.PlayerName, v.Label, v.DetectedAt.Format("2006-01-02 15:04:05"))
	if err := o.c.Archiver.Save(scope.Ctx, name, frame); err != nil {
		scope.Log.Warnf("failed to save screenshot %s: %v", name, err)
	}
}

// Wait blocks until every started perception goroutine has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// sleep waits for d and reports false if ctx ended first.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
