package bootstrap

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/internal/config"
	"github.com/specbot/kickbot/pkg/fuzzy"
	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/perception/replay"
	"github.com/specbot/kickbot/pkg/weapon"
)

// Perception is everything a spectator cycle reads a frame with.
type Perception struct {
	Pool       *perception.Pool
	Reader     *perception.Reader
	Identifier *weapon.Identifier
	Matcher    fuzzy.Matcher
}

// InitPerception builds the worker pool, frame reader and weapon identifier.
//
// ============================================================
// DEVELOPER: Perception backends
// ============================================================
// Only the replay backend ships with the bot. It answers capture,
// OCR and icon inference from the recorded scenario.
//
// To add a live backend (screen capture + OCR + classifier):
// 1. Implement perception.ImageSource, TextRecognizer and Classifier
// 2. Add a BOT_MODE value in internal/config
// 3. Select it in the switch below
// ============================================================
func InitPerception(cfg *config.Config, layout *config.LayoutFile, scenario *replay.Scenario) (*Perception, error) {
	var (
		source     perception.ImageSource
		classifier perception.Classifier
		factory    perception.WorkerFactory
	)

	switch cfg.BotMode {
	case config.ModeReplay:
		if scenario == nil {
			return nil, fmt.Errorf("bot mode %s needs a replay scenario", cfg.BotMode)
		}
		source = replay.NewSource(scenario)
		classifier = replay.Classifier{}
		factory = func(id int) (*perception.Worker, error) {
			return perception.NewWorker(id, replay.NewRecognizer(layout.Layout)), nil
		}
	default:
		return nil, fmt.Errorf("unknown bot mode %q", cfg.BotMode)
	}

	pool, err := perception.NewPool(cfg.PerceptionWorkers, factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create perception pool: %w", err)
	}

	matcher := fuzzy.NewMatcher(cfg.PlayerSimilarity, cfg.WeaponSimilarity)
	identifier := weapon.NewIdentifier(layout.Catalog, matcher, cfg.WeaponIconProbability)
	logrus.Infof("initialized %s perception (icon threshold %.2f)", cfg.BotMode, cfg.WeaponIconProbability)

	return &Perception{
		Pool:       pool,
		Reader:     perception.NewReader(source, classifier, layout.Layout),
		Identifier: identifier,
		Matcher:    matcher,
	}, nil
}
