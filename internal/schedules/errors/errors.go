package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule not found")

	ErrInvalidID = errors.New("invalid schedule ID format")

	ErrOverrideNotFound = errors.New("date override not found")

	ErrNoDefault = errors.New("host has no default schedule")
)
