package model

import "errors"

var (
	// ErrDataUnavailable means the provider returned nothing or the fetch failed.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory means the series is shorter than a window or sample minimum.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrNumericDegenerate means an input would produce a non-finite result.
	ErrNumericDegenerate = errors.New("numeric degenerate")
)

// IsAbsent reports whether err marks a signal that simply cannot be computed.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrDataUnavailable) ||
		errors.Is(err, ErrInsufficientHistory) ||
		errors.Is(err, ErrNumericDegenerate)
}
