package repositories

import "errors"

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrInvalidID is returned for identifiers that cannot be parsed.
var ErrInvalidID = errors.New("invalid id")
