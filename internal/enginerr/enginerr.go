// Package enginerr defines the sentinel error kinds the search engine core
// distinguishes at its public boundary.
package enginerr

import "errors"

// ErrDuplicateID is returned by Add when the caller-provided or generated
// document id already exists in the collection. The caller should use
// Update instead.
var ErrDuplicateID = errors.New("document id already exists")

// ErrCorruptSnapshot is returned by Load when the snapshot bytes are
// malformed or describe a schema-incompatible engine. It is fatal to the
// load attempt that produced it; the engine that attempted the load is
// left unconstructed.
var ErrCorruptSnapshot = errors.New("snapshot is corrupt or incompatible")

// Note: NotFound is deliberately not a sentinel error. Update, Delete, and
// GetDocument report an absent id with a false/nil return, matching
// spec.md §7 ("Represented as a false/null return, not an exception").
//
// InvalidFilter is likewise not an error value: an unrecognized range
// filter on a non-numeric field is silently ignored (best-effort
// filtering), per spec.md §7.
//
// IoFailure has no dedicated sentinel: Save/Load propagate the
// underlying os/io error wrapped with fmt.Errorf, so callers can inspect
// it with errors.Is/errors.As against the stdlib error values directly.
