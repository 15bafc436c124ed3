// Package perception turns captured frames into text and weapon-icon
// predictions. Capture, OCR and inference engines are supplied from outside
// through the interfaces declared here.
package perception

import (
	"context"
	"fmt"

	"github.com/specbot/kickbot/pkg/weapon"
)

// Rect is a screen region in pixels.
type Rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Image is a captured frame or a region of one.
type Image interface {
	Crop(r Rect) (Image, error)
}

// ImageSource captures the game window.
type ImageSource interface {
	Capture(ctx context.Context) (Image, error)
}

// TextRecognizer reads text from an image. One recognizer belongs to one
// worker and is never shared between goroutines.
type TextRecognizer interface {
	Recognize(ctx context.Context, img Image) (string, error)
	Close() error
}

// Classifier predicts the weapon category of a weapon icon crop. It must be
// safe for concurrent use.
type Classifier interface {
	Infer(ctx context.Context, img Image) (float32, weapon.Category, error)
}

// Archiver keeps frames of confirmed violations.
type Archiver interface {
	Save(ctx context.Context, name string, img Image) error
}

// Layout holds the screen regions read on every cycle.
type Layout struct {
	PlayerName  Rect `yaml:"player_name"`
	WeaponIcon  Rect `yaml:"weapon_icon"`
	WeaponSlot1 Rect `yaml:"weapon_slot1"`
	WeaponSlot2 Rect `yaml:"weapon_slot2"`
}

// Validate checks that every region is usable.
func (l Layout) Validate() error {
	regions := []struct {
		name string
		rect Rect
	}{
		{"player_name", l.PlayerName},
		{"weapon_icon", l.WeaponIcon},
		{"weapon_slot1", l.WeaponSlot1},
		{"weapon_slot2", l.WeaponSlot2},
	}
	for _, region := range regions {
		if region.rect.Empty() {
			return fmt.Errorf("%w: region %s is empty", ErrInvalidLayout, region.name)
		}
	}
	return nil
}

// SlotRect returns the region of a weapon slot.
func (l Layout) SlotRect(slot weapon.Slot) (Rect, error) {
	switch slot {
	case weapon.Slot1:
		return l.WeaponSlot1, nil
	case weapon.Slot2:
		return l.WeaponSlot2, nil
	default:
		return Rect{}, fmt.Errorf("%w: no region for weapon slot %d", ErrInvalidLayout, slot)
	}
}
