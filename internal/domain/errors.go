package domain

import "errors"

// ErrNotFound is returned by repositories when the requested row does not
// exist. Callers should test with errors.Is.
var ErrNotFound = errors.New("not found")
