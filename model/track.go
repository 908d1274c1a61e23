package model

import "time"

// Title is a multi-valued track or album title entry.
type Title struct {
	Scope Scope     `json:"scope"`
	Kind  TitleKind `json:"kind"`
	Name  string    `json:"name"`
}

type Titles []Title

// Actor is a multi-valued contribution credit.
type Actor struct {
	Scope Scope     `json:"scope"`
	Role  ActorRole `json:"role"`
	Kind  ActorKind `json:"kind"`
	Name  string    `json:"name"`
}

type Actors []Actor

// Index is a track/disc/movement position within its total count.
type Index struct {
	Number *int64 `json:"number,omitempty"`
	Total  *int64 `json:"total,omitempty"`
}

// Album describes the release a track belongs to, with its own titles/actors.
type Album struct {
	Kind   AlbumKind `json:"kind"`
	Titles Titles    `json:"titles,omitempty"`
	Actors Actors    `json:"actors,omitempty"`
}

// PackedDate is a calendar date stored as a yyyymmdd-packed integer alongside a
// millisecond instant, per the date-duality design note: both representations
// must be set consistently.
type PackedDate struct {
	YYYYMMDD *int64     `json:"yyyymmdd,omitempty"`
	At       *time.Time `json:"at,omitempty"`
}

// Tag is a multi-valued facet/label/score triple. Facet and label are each
// independently nullable; score lies in [0, 1].
type Tag struct {
	Facet *string  `json:"facet,omitempty"`
	Label *string  `json:"label,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

type Tags []Tag

// Cue is an ordered marker within the track, with an optional label.
type Cue struct {
	Ordinal int64   `json:"ordinal"`
	Label   *string `json:"label,omitempty"`
}

type Cues []Cue

// Metrics carries derived acoustic properties not already in AudioMetadata.
type Metrics struct {
	TempoBPM      *float64 `json:"tempoBpm,omitempty"`
	KeySignature  *int64   `json:"keySignature,omitempty"`
	IntegerBPM    bool     `json:"integerBpm"`
	LoudnessLufs  *float64 `json:"loudnessLufs,omitempty"`
}

// Track is the central entity: a canonical body plus auxiliary rows re-derived
// from it on every write.
type Track struct {
	Header
	MediaSourceUID string `structs:"media_source_id" json:"mediaSourceUid"`

	Titles Titles `json:"titles"`
	Actors Actors `json:"actors,omitempty"`
	Album  *Album `json:"album,omitempty"`

	TrackIndex Index `json:"trackIndex"`
	DiscIndex  Index `json:"discIndex"`
	MovementIndex Index `json:"movementIndex"`

	RecordedAt     PackedDate `json:"recordedAt"`
	ReleasedAt     PackedDate `json:"releasedAt"`
	ReleasedOrigAt PackedDate `json:"releasedOrigAt"`

	Tags Tags `json:"tags,omitempty"`
	Cues Cues `json:"cues,omitempty"`

	Metrics Metrics `json:"metrics"`

	Publisher       *string        `json:"publisher,omitempty"`
	Copyright       *string        `json:"copyright,omitempty"`
	AdvisoryRating  *AdvisoryRating `json:"advisoryRating,omitempty"`
	Color           *string        `json:"color,omitempty"`
}

type Tracks []Track

// TrackRepository is the Entity Store surface (§4.1) for tracks, plus the
// search entry point (§4.3) and the content-path write path (§4.4/§4.5).
type TrackRepository interface {
	Create(t *Track) (Header, error)
	Load(uid string) (*Track, error)
	Update(current Header, t *Track) (*Revision, error)
	Delete(uid string) (bool, error)

	Search(f Filter, sorts []SortOrder, page Pagination) (Tracks, error)
	CountSearch(f Filter) (int64, error)

	ResolveByContentPath(collectionUID, contentPath string) (*Header, error)
	ReplaceByContentPath(collectionUID, contentPath string, mode ReplaceMode, t *Track) (ReplaceOutcome, error)

	// FindDuplicateContentPaths is a read-only maintenance diagnostic: content
	// paths within a collection that normalize to the same case-folded path.
	FindDuplicateContentPaths(collectionUID string) ([][]string, error)

	// PurgeUntracked deletes every track in collectionUID whose media source is
	// untracked (ConditionSourceUntracked), optionally restricted to content
	// paths beginning with contentPathPrefix, per §6's
	// purge_untracked(root_url?, untrack_orphans?) request. Returns the number
	// of tracks purged.
	PurgeUntracked(collectionUID string, contentPathPrefix *string) (int64, error)
}

// ReplaceOutcome classifies the result of a single ReplaceByContentPath call,
// per §4.5's created/updated/unchanged/not_created/not_updated taxonomy.
type ReplaceOutcome string

const (
	ReplaceOutcomeCreated    ReplaceOutcome = "created"
	ReplaceOutcomeUpdated    ReplaceOutcome = "updated"
	ReplaceOutcomeUnchanged  ReplaceOutcome = "unchanged"
	ReplaceOutcomeNotCreated ReplaceOutcome = "not_created"
	ReplaceOutcomeNotUpdated ReplaceOutcome = "not_updated"
)
