package weapon

import (
	"context"
	"errors"
	"testing"

	"github.com/specbot/kickbot/pkg/fuzzy"
)

// fakeSlots serves fixed slot texts and counts reads per slot.
type fakeSlots struct {
	slot1, slot2 string
	err          error
	reads        map[Slot]int
}

func (f *fakeSlots) ReadSlot(ctx context.Context, slot Slot) (string, error) {
	if f.reads == nil {
		f.reads = make(map[Slot]int)
	}
	f.reads[slot]++
	if f.err != nil {
		return "", f.err
	}
	if slot == Slot1 {
		return f.slot1, nil
	}
	return f.slot2, nil
}

func newTestIdentifier() *Identifier {
	return NewIdentifier(DefaultCatalog(), fuzzy.NewMatcher(0.8, 0.7), 0.8)
}

func TestIdentify_LowConfidenceSMG08NeverReadsSlot2(t *testing.T) {
	id := newTestIdentifier()
	slots := &fakeSlots{slot1: "MG 08/18", slot2: "Mortar"}

	got, ok, err := id.Identify(context.Background(), 0.3, AllowedPrimaryGuns, slots)
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if !ok {
		t.Fatal("expected a detection")
	}
	if got.Category != SMG08 || got.Label != "SMG08/18" {
		t.Errorf("got %+v, expected SMG08/18", got)
	}
	if slots.reads[Slot2] != 0 {
		t.Errorf("slot 2 read %d times, expected 0", slots.reads[Slot2])
	}
	if slots.reads[Slot1] != 1 {
		t.Errorf("slot 1 read %d times, expected 1", slots.reads[Slot1])
	}
}

func TestIdentify_LowConfidence(t *testing.T) {
	tests := []struct {
		name      string
		slot1     string
		slot2     string
		wantOK    bool
		wantCat   Category
		wantSlot2 int
	}{
		{"heavy bomber needs both slots", "Gotha G.IV", "Heavy Bombs", true, HeavyBomber, 1},
		{"heavy bomber primary only is clean", "Gotha G.IV", "Machine Gun", false, 0, 1},
		{"heavy bomber secondary only is clean", "Gewehr 98", "Heavy Bombs", false, 0, 0},
		{"lmg hint confirmed by mortar", "LMG", "Mortar", true, LMG, 1},
		{"lmg hint without mortar is clean", "LMG", "Lewis Gun", false, 0, 1},
		{"mortar without lmg hint is clean", "Gewehr 98", "Mortar", false, 0, 0},
		{"plain rifle is clean", "Gewehr 98", "Pistol", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := newTestIdentifier()
			slots := &fakeSlots{slot1: tt.slot1, slot2: tt.slot2}

			got, ok, err := id.Identify(context.Background(), 0.1, HMG, slots)
			if err != nil {
				t.Fatalf("Identify() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, expected %v (got %+v)", ok, tt.wantOK, got)
			}
			if ok && got.Category != tt.wantCat {
				t.Errorf("category = %v, expected %v", got.Category, tt.wantCat)
			}
			if slots.reads[Slot2] != tt.wantSlot2 {
				t.Errorf("slot 2 read %d times, expected %d", slots.reads[Slot2], tt.wantSlot2)
			}
		})
	}
}

func TestIdentify_HighConfidence(t *testing.T) {
	tests := []struct {
		name      string
		predicted Category
		slot1     string
		slot2     string
		wantOK    bool
		wantLabel string
	}{
		{"heavy bomber via slot 1", HeavyBomber, "Caproni Ca.5", "", true, "heavy bomber"},
		{"heavy bomber via slot 2", HeavyBomber, "", "Fire Bombs", true, "heavy bomber"},
		{"heavy bomber neither slot", HeavyBomber, "Gewehr 98", "Pistol", false, ""},
		{"lmg via slot 2", LMG, "whatever", "Airburst Mortar", true, "mortar truck"},
		{"lmg ignores slot 1", LMG, "Airburst Mortar", "Pistol", false, ""},
		{"smg08 via slot 1", SMG08, "MG08/18", "", true, "SMG08/18"},
		{"smg08 ignores slot 2", SMG08, "Gewehr 98", "MG 08/18", false, ""},
		{"allowed guns always clean", AllowedPrimaryGuns, "MG 08/18", "Mortar", false, ""},
		{"hmg always clean", HMG, "MG 08/18", "Mortar", false, ""},
		{"unknown category is clean", Category(42), "MG 08/18", "Mortar", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := newTestIdentifier()
			slots := &fakeSlots{slot1: tt.slot1, slot2: tt.slot2}

			got, ok, err := id.Identify(context.Background(), 0.95, tt.predicted, slots)
			if err != nil {
				t.Fatalf("Identify() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, expected %v", ok, tt.wantOK)
			}
			if ok && (got.Label != tt.wantLabel || got.Category != tt.predicted) {
				t.Errorf("got %+v, expected label %q category %v", got, tt.wantLabel, tt.predicted)
			}
		})
	}
}

func TestIdentify_HeavyBomberSlot1ShortCircuits(t *testing.T) {
	id := newTestIdentifier()
	slots := &fakeSlots{slot1: "Handley Page O/400", slot2: "Heavy Bombs"}

	if _, ok, _ := id.Identify(context.Background(), 0.9, HeavyBomber, slots); !ok {
		t.Fatal("expected a detection")
	}
	if slots.reads[Slot2] != 0 {
		t.Errorf("slot 2 read %d times, expected 0", slots.reads[Slot2])
	}
}

func TestIdentify_ThresholdIsInclusive(t *testing.T) {
	id := newTestIdentifier()
	slots := &fakeSlots{slot1: "Gewehr 98", slot2: "Mortar"}

	// At exactly the threshold the icon decides, so the mortar text counts.
	if _, ok, _ := id.Identify(context.Background(), 0.8, LMG, slots); !ok {
		t.Fatal("expected icon path at the threshold")
	}
}

func TestIdentify_ReadErrorPropagates(t *testing.T) {
	id := newTestIdentifier()
	readErr := errors.New("ocr down")

	_, ok, err := id.Identify(context.Background(), 0.9, SMG08, &fakeSlots{err: readErr})
	if ok {
		t.Error("expected no detection")
	}
	if !errors.Is(err, readErr) {
		t.Errorf("error = %v, expected to wrap %v", err, readErr)
	}
}

func TestIdentify_TextPathReadErrorPropagates(t *testing.T) {
	id := newTestIdentifier()
	readErr := errors.New("ocr down")

	det, ok, err := id.fromText(context.Background(), &slotTexts{reader: &fakeSlots{err: readErr}})
	if ok || det != (Detection{}) {
		t.Errorf("got %+v, %v, expected no detection", det, ok)
	}
	if !errors.Is(err, readErr) {
		t.Errorf("error = %v, expected to wrap %v", err, readErr)
	}
}

func TestCategory(t *testing.T) {
	for _, c := range []Category{AllowedPrimaryGuns, HeavyBomber, HMG, LMG, SMG08} {
		parsed, err := ParseCategory(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), parsed, err)
		}
	}

	if _, err := ParseCategory("tank"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}

	if AllowedPrimaryGuns.Banned() || HMG.Banned() {
		t.Error("allowed categories reported as banned")
	}
	if !SMG08.Banned() || !LMG.Banned() || !HeavyBomber.Banned() {
		t.Error("banned categories reported as allowed")
	}
}

func TestCatalogValidate(t *testing.T) {
	if err := DefaultCatalog().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}

	c := DefaultCatalog()
	c.LMG.SecondaryNames = nil
	if err := c.Validate(); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}
