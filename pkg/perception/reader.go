package perception

import (
	"context"
	"fmt"

	"github.com/specbot/kickbot/pkg/weapon"
)

// Reader extracts the spectator HUD fields from captured frames.
type Reader struct {
	source     ImageSource
	classifier Classifier
	layout     Layout
}

// NewReader creates a reader for the given layout.
func NewReader(source ImageSource, classifier Classifier, layout Layout) *Reader {
	return &Reader{
		source:     source,
		classifier: classifier,
		layout:     layout,
	}
}

// Capture grabs the current frame.
func (r *Reader) Capture(ctx context.Context) (Image, error) {
	frame, err := r.source.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: capture: %w", ErrPerception, err)
	}
	return frame, nil
}

// PlayerName reads the spectated player's name.
func (r *Reader) PlayerName(ctx context.Context, w *Worker, frame Image) (string, error) {
	return w.ReadText(ctx, frame, r.layout.PlayerName)
}

// WeaponIcon classifies the weapon icon.
func (r *Reader) WeaponIcon(ctx context.Context, frame Image) (float32, weapon.Category, error) {
	icon, err := frame.Crop(r.layout.WeaponIcon)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: crop %s: %w", ErrPerception, r.layout.WeaponIcon, err)
	}

	probability, category, err := r.classifier.Infer(ctx, icon)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: infer weapon icon: %w", ErrPerception, err)
	}
	return probability, category, nil
}

// Slots returns a reader for the weapon slot names of frame using w.
func (r *Reader) Slots(w *Worker, frame Image) weapon.SlotReader {
	return weapon.SlotReaderFunc(func(ctx context.Context, slot weapon.Slot) (string, error) {
		rect, err := r.layout.SlotRect(slot)
		if err != nil {
			return "", err
		}
		return w.ReadText(ctx, frame, rect)
	})
}
