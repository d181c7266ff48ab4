package repository

import "errors"

// ErrConflict is returned when a guarded write matched no row because the
// stored state changed between the read and the write.
var ErrConflict = errors.New("repository: concurrent modification")
