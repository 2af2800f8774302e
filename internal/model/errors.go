package model

import "errors"

var (
	// ErrNegativeEnergy rejects offers with a negative quantity.
	ErrNegativeEnergy = errors.New("offer energy must be >= 0")
	// ErrUnknownSide rejects offers tagged neither SUPPLY nor DEMAND.
	ErrUnknownSide = errors.New("offer side must be SUPPLY or DEMAND")
	// ErrInvalidState marks calls made in the wrong order, e.g. adding to a sorted book.
	ErrInvalidState = errors.New("invalid state")
)
