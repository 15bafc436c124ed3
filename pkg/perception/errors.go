package perception

import "errors"

var (
	// ErrPerception wraps every capture, OCR or inference failure of a cycle.
	ErrPerception = errors.New("perception failed")

	// ErrInvalidLayout indicates a screen layout with unusable regions.
	ErrInvalidLayout = errors.New("invalid screen layout")

	// ErrPoolClosed indicates the worker pool was closed.
	ErrPoolClosed = errors.New("worker pool closed")
)
