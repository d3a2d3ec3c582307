package repository

import "errors"

var (
	// ErrNotFound is returned when no record exists for the requested key.
	ErrNotFound = errors.New("not found")

	// ErrIncompatibleVersion marks a stored plan written by another format
	// version. Callers treat it like a miss.
	ErrIncompatibleVersion = errors.New("incompatible plan version")

	// ErrCorruptPayload marks a stored plan that could not be decoded.
	ErrCorruptPayload = errors.New("corrupt plan payload")

	// ErrUnavailable is returned by a remote store that cannot be reached.
	ErrUnavailable = errors.New("remote store unavailable")
)

// IsMiss reports whether err means "no usable plan here" rather than a
// store failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrIncompatibleVersion) ||
		errors.Is(err, ErrCorruptPayload)
}
