// Package fuzzy scores how alike two pieces of recognized text are.
//
// OCR output is noisy, so every comparison between a read name and a known
// name goes through Ratio, the Ratcliff/Obershelp "gestalt" similarity
// (2*M / T, where M is the number of matching characters and T the total
// number of characters in both strings).
package fuzzy

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultPlayerThreshold is the similarity required to treat two player names as the same.
	DefaultPlayerThreshold = 0.8
	// DefaultWeaponThreshold is the similarity required to treat a slot text as a weapon name.
	DefaultWeaponThreshold = 0.7
)

// Normalize trims surrounding whitespace and folds the text into NFC form so
// that composed and decomposed accents compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Ratio returns the gestalt similarity of a and b in the range [0, 1].
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

// Similar reports whether Ratio(a, b) reaches threshold.
func Similar(a, b string, threshold float64) bool {
	return Ratio(a, b) >= threshold
}

// chars splits s into one element per rune.
func chars(s string) []string {
	return strings.Split(s, "")
}

// Matcher binds the player and weapon thresholds used across the bot.
type Matcher struct {
	PlayerThreshold float64
	WeaponThreshold float64
}

// NewMatcher creates a matcher, falling back to the defaults for zero thresholds.
func NewMatcher(player, weapon float64) Matcher {
	if player <= 0 {
		player = DefaultPlayerThreshold
	}
	if weapon <= 0 {
		weapon = DefaultWeaponThreshold
	}
	return Matcher{PlayerThreshold: player, WeaponThreshold: weapon}
}

// SamePlayer reports whether two player names are close enough to be one player.
func (m Matcher) SamePlayer(a, b string) bool {
	return Similar(a, b, m.PlayerThreshold)
}

// SameWeapon reports whether text reads as the weapon name.
func (m Matcher) SameWeapon(text, name string) bool {
	return Similar(text, name, m.WeaponThreshold)
}

// AnyWeapon reports whether text reads as any of names.
func (m Matcher) AnyWeapon(text string, names []string) bool {
	for _, name := range names {
		if m.SameWeapon(text, name) {
			return true
		}
	}
	return false
}
