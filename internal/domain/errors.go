package domain

import "errors"

var (
	ErrEmptyQuestion     = errors.New("empty question")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
