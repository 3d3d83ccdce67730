package store

import "errors"

// ErrNotFound is returned when a requested resource does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a uniqueness constraint,
// e.g. a duplicate admin username or lead email/phone.
var ErrConflict = errors.New("conflict")
