package storage

import "errors"

// ErrNotFound is returned by every store when a requested record does not
// exist. Callers branch on it with errors.Is.
var ErrNotFound = errors.New("record not found")
