package model

import "errors"

// Error kinds returned by persistence and core components. Callers use errors.Is
// against these sentinels; wrapping preserves the underlying cause with %w.
var (
	// ErrNotFound is returned when a lookup by uid or unique key matches no row.
	ErrNotFound = errors.New("not found")

	// ErrRevisionConflict is returned when a conditional write's revision no longer
	// matches the stored row (optimistic concurrency failure).
	ErrRevisionConflict = errors.New("revision conflict")

	// ErrConflict is returned for a non-revision uniqueness violation, e.g. a
	// media source's (collection_id, content_path) pair already exists.
	ErrConflict = errors.New("conflict")

	// ErrBadRequest is returned when caller-supplied input fails validation before
	// any query is issued (malformed filter, NaN in a numeric predicate, ...).
	ErrBadRequest = errors.New("bad request")

	// ErrMedia is returned by external media collaborators (file importer, audio
	// metadata parser) and passed through unchanged by this module's interfaces.
	ErrMedia = errors.New("media error")

	// ErrIo wraps filesystem/network errors surfaced while resolving media sources.
	ErrIo = errors.New("io error")

	// ErrDatabase wraps unexpected sqlite/driver errors not otherwise classified.
	ErrDatabase = errors.New("database error")

	// ErrOther is the catch-all for errors that do not fit any other kind.
	ErrOther = errors.New("error")
)
