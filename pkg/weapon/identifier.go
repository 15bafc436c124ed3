package weapon

import (
	"context"
	"fmt"

	"github.com/specbot/kickbot/pkg/fuzzy"
)

// lmgSlotHint is what the first slot reads when the player sits in a mortar truck seat.
const lmgSlotHint = "LMG"

// Slot identifies one of the two weapon name boxes on screen.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// SlotReader reads the text of one weapon slot from the frame under inspection.
type SlotReader interface {
	ReadSlot(ctx context.Context, slot Slot) (string, error)
}

// SlotReaderFunc adapts a function to SlotReader.
type SlotReaderFunc func(ctx context.Context, slot Slot) (string, error)

func (f SlotReaderFunc) ReadSlot(ctx context.Context, slot Slot) (string, error) {
	return f(ctx, slot)
}

// Detection is a confirmed banned weapon.
type Detection struct {
	Label    string
	Category Category
}

// Identifier decides whether the spectated player carries a banned weapon,
// combining the icon classifier with fuzzy matches on the slot names.
type Identifier struct {
	catalog       Catalog
	matcher       fuzzy.Matcher
	iconThreshold float32
}

// NewIdentifier creates an identifier. Detections with an icon probability
// below iconThreshold are decided from text alone.
func NewIdentifier(catalog Catalog, matcher fuzzy.Matcher, iconThreshold float32) *Identifier {
	return &Identifier{
		catalog:       catalog,
		matcher:       matcher,
		iconThreshold: iconThreshold,
	}
}

// Identify returns the banned weapon of the current frame, if any. The first
// slot is always read; the second only when a rule needs it, at most once.
func (id *Identifier) Identify(ctx context.Context, probability float32, predicted Category, reader SlotReader) (Detection, bool, error) {
	slots := &slotTexts{reader: reader}
	if _, err := slots.get(ctx, Slot1); err != nil {
		return Detection{}, false, err
	}

	if probability < id.iconThreshold {
		return id.fromText(ctx, slots)
	}
	return id.fromIcon(ctx, predicted, slots)
}

// fromText runs the text-only rules in priority order.
func (id *Identifier) fromText(ctx context.Context, slots *slotTexts) (Detection, bool, error) {
	if ok, err := id.smg08(ctx, slots); err != nil || ok {
		return id.detection(SMG08, ok), ok, err
	}

	if ok, err := id.heavyBomber(ctx, slots, false); err != nil || ok {
		return id.detection(HeavyBomber, ok), ok, err
	}

	slot1, err := slots.get(ctx, Slot1)
	if err != nil {
		return Detection{}, false, err
	}
	if id.matcher.SameWeapon(slot1, lmgSlotHint) {
		if ok, err := id.mortarTruck(ctx, slots); err != nil || ok {
			return id.detection(LMG, ok), ok, err
		}
	}

	return Detection{}, false, nil
}

// fromIcon confirms the classifier's category with the matching text rule.
func (id *Identifier) fromIcon(ctx context.Context, predicted Category, slots *slotTexts) (Detection, bool, error) {
	var (
		ok  bool
		err error
	)

	switch predicted {
	case HeavyBomber:
		ok, err = id.heavyBomber(ctx, slots, true)
	case LMG:
		ok, err = id.mortarTruck(ctx, slots)
	case SMG08:
		ok, err = id.smg08(ctx, slots)
	case AllowedPrimaryGuns, HMG:
		return Detection{}, false, nil
	default:
		return Detection{}, false, nil
	}

	if err != nil || !ok {
		return Detection{}, false, err
	}
	return id.detection(predicted, true), true, nil
}

func (id *Identifier) smg08(ctx context.Context, slots *slotTexts) (bool, error) {
	slot1, err := slots.get(ctx, Slot1)
	if err != nil {
		return false, err
	}
	return id.matcher.AnyWeapon(slot1, id.catalog.SMG08.Names), nil
}

// heavyBomber matches the bomber seat names. With either set, one matching
// slot is enough; otherwise both slots have to match.
func (id *Identifier) heavyBomber(ctx context.Context, slots *slotTexts, either bool) (bool, error) {
	slot1, err := slots.get(ctx, Slot1)
	if err != nil {
		return false, err
	}
	primary := id.matcher.AnyWeapon(slot1, id.catalog.HeavyBomber.PrimaryNames)

	if either && primary {
		return true, nil
	}
	if !either && !primary {
		return false, nil
	}

	slot2, err := slots.get(ctx, Slot2)
	if err != nil {
		return false, err
	}
	return id.matcher.AnyWeapon(slot2, id.catalog.HeavyBomber.SecondaryNames), nil
}

func (id *Identifier) mortarTruck(ctx context.Context, slots *slotTexts) (bool, error) {
	slot2, err := slots.get(ctx, Slot2)
	if err != nil {
		return false, err
	}
	return id.matcher.AnyWeapon(slot2, id.catalog.LMG.SecondaryNames), nil
}

func (id *Identifier) detection(c Category, ok bool) Detection {
	if !ok {
		return Detection{}
	}
	return Detection{Label: id.Label(c), Category: c}
}

// Label returns the display label announced and sent as kick reason for c.
func (id *Identifier) Label(c Category) string {
	switch c {
	case SMG08:
		return id.catalog.SMG08.Label
	case HeavyBomber:
		return id.catalog.HeavyBomber.Label
	case LMG:
		return id.catalog.LMG.Label
	case AllowedPrimaryGuns, HMG:
		return ""
	default:
		return ""
	}
}

// slotTexts caches slot reads for a single frame.
type slotTexts struct {
	reader SlotReader
	texts  [2]*string
}

func (s *slotTexts) get(ctx context.Context, slot Slot) (string, error) {
	i := int(slot) - 1
	if i < 0 || i >= len(s.texts) {
		return "", fmt.Errorf("invalid weapon slot %d", slot)
	}
	if s.texts[i] != nil {
		return *s.texts[i], nil
	}

	text, err := s.reader.ReadSlot(ctx, slot)
	if err != nil {
		return "", fmt.Errorf("failed to read weapon slot %d: %w", slot, err)
	}
	text = fuzzy.Normalize(text)
	s.texts[i] = &text
	return text, nil
}
