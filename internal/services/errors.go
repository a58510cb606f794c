package services

import "errors"

var (
	// ErrUnknownRow is returned when a row id or index does not resolve to an
	// existing row of the expected kind.
	ErrUnknownRow = errors.New("unknown row")
	// ErrInvalidInput is returned when caller supplied values fail validation.
	ErrInvalidInput = errors.New("invalid input")
)
