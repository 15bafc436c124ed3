package kick

import "errors"

var (
	// ErrBackend indicates the kick request was rejected or could not be sent.
	ErrBackend = errors.New("kick backend failure")

	// ErrInvariant indicates a violation event the coordinator cannot act on.
	ErrInvariant = errors.New("kick state invariant violated")
)
