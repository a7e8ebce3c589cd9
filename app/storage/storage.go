// Package storage keeps scored submissions in a sql database and provides a redis-backed rate limiter.
// Database access goes through engine.SQL, so every store works with both sqlite and postgres.
// Each table is represented by a struct with methods implementing business logic for this data type.
package storage

import "errors"

// ErrNotFound is returned when a submission doesn't exist in the current group
var ErrNotFound = errors.New("submission not found")
