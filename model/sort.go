package model

// SortField enumerates every sortable column on view_track_search.
type SortField string

const (
	SortByEntityUID      SortField = "entity_uid"
	SortByContentPath    SortField = "content_path"
	SortByContentType    SortField = "content_type"
	SortByCollectedAt    SortField = "collected_at"
	SortByRecordedAt     SortField = "recorded_at"
	SortByReleasedAt     SortField = "released_at"
	SortByReleasedOrigAt SortField = "released_orig_at"
	SortByTempoBPM       SortField = "tempo_bpm"
	SortByDurationMS     SortField = "duration_ms"
	SortByTrackNumber    SortField = "track_number"
	SortByDiscNumber     SortField = "disc_number"
	SortByAdvisoryRating SortField = "advisory_rating"
	// SortByTitleNatural orders the primary title "naturally" (Track 2 < Track 10)
	// rather than lexicographically. The SQL ORDER BY skips this field;
	// persistence.SortTitleNaturally reorders one page of titles in memory,
	// and track search does not call it.
	SortByTitleNatural SortField = "title_natural"
)

// SortOrder pairs a sortable field with a direction. The compiler always
// appends the primary key ascending as a final tiebreaker.
type SortOrder struct {
	Field     SortField
	Direction SortDirection
}
