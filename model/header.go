package model

import "time"

// Revision is an optimistic-concurrency version stamp. Two revisions are equal
// iff both components match.
type Revision struct {
	Ordinal   uint64    `structs:"rev_ordinal" json:"ordinal"`
	Timestamp time.Time `structs:"rev_timestamp_ms" json:"timestamp"`
}

// InitialRevision returns the revision assigned to a freshly created entity.
func InitialRevision(now time.Time) Revision {
	return Revision{Ordinal: 1, Timestamp: now}
}

// Next returns the revision that must be stored after a successful conditional
// update against this revision.
func (r Revision) Next(now time.Time) Revision {
	return Revision{Ordinal: r.Ordinal + 1, Timestamp: now}
}

// Equal reports whether both components of two revisions match.
func (r Revision) Equal(other Revision) bool {
	return r.Ordinal == other.Ordinal && r.Timestamp.Equal(other.Timestamp)
}

// Header identifies a durable, revisioned entity.
type Header struct {
	UID      string   `structs:"entity_uid" json:"uid"`
	Revision Revision `structs:",flatten" json:"revision"`
}
