package weapon

import (
	"fmt"
	"strings"
)

// Category is the classifier's label for the weapon icon of the spectated player.
type Category int

const (
	AllowedPrimaryGuns Category = iota
	HeavyBomber
	HMG
	LMG
	SMG08
)

var categoryNames = map[Category]string{
	AllowedPrimaryGuns: "allowed_primary_guns",
	HeavyBomber:        "heavy_bomber",
	HMG:                "hmg",
	LMG:                "lmg",
	SMG08:              "smg08",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Banned reports whether a confirmed detection of this category breaks the server rules.
func (c Category) Banned() bool {
	switch c {
	case HeavyBomber, LMG, SMG08:
		return true
	default:
		return false
	}
}

// ParseCategory maps a classifier label back to a Category.
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// UnmarshalText lets scenario and layout files name categories by label.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
