package weapon

import "errors"

var (
	// ErrUnknownCategory indicates a classifier label outside the closed category set.
	ErrUnknownCategory = errors.New("unknown weapon category")

	// ErrEmptyCatalog indicates a catalog entry without any display names.
	ErrEmptyCatalog = errors.New("catalog entry has no names")
)
