package risk

import "errors"

var (
	// ErrInsufficientData is returned when a series is too short for the statistic
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateInput is returned for zero benchmark variance or non-finite inputs
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrInvalidConfidence is returned for confidence levels outside (0, 1)
	ErrInvalidConfidence = errors.New("invalid confidence level")
)
