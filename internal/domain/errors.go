package domain

import "errors"

// ErrNotFound is returned by repositories when a row does not exist or is
// soft-deleted.
var ErrNotFound = errors.New("not found")
