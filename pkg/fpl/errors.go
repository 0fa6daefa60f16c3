package fpl

import "errors"

var (
	// ErrInsufficientData is returned when a venue mean or league average has no
	// contributing games
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUndefinedStrength is returned when a strength ratio needed by a calculation is undefined.
	// Errors carrying it also match ErrInsufficientData
	ErrUndefinedStrength = errors.New("undefined strength")

	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownTeam     = errors.New("unknown team")
)
