package persistence

import (
	"sort"

	. "github.com/Masterminds/squirrel"
	"github.com/maruel/natural"

	"github.com/vinylindex/vinylindex/model"
)

// sortColumns maps a SortField to its view_track_search column expression,
// mirroring album_repository.go's setSortMappings field-name-to-SQL-expression
// map. SortByTitleNatural has no entry, since natural ordering isn't
// expressible as plain SQL ORDER BY; SortTitleNaturally below orders a page
// in memory, and Search does not call it.
// view_track_search exposes every sortable/filterable column under the same
// abstract name model.SortField/model.NumericField/model.DateTimeField use,
// so this map (and query_compiler.go's direct string(field) column
// references) need no translation layer against the physical schema.
var sortColumns = map[model.SortField]string{
	model.SortByEntityUID:      "entity_uid",
	model.SortByContentPath:    "content_path",
	model.SortByContentType:    "content_type",
	model.SortByCollectedAt:    "collected_at",
	model.SortByRecordedAt:     "recorded_at",
	model.SortByReleasedAt:     "released_at",
	model.SortByReleasedOrigAt: "released_orig_at",
	model.SortByTempoBPM:       "tempo_bpm",
	model.SortByDurationMS:     "duration_ms",
	model.SortByTrackNumber:    "track_number",
	model.SortByDiscNumber:     "disc_number",
	model.SortByAdvisoryRating: "advisory_rating",
}

// applySort appends ORDER BY clauses in the given order, then always appends
// the primary key ascending as the final tiebreaker (§4.3's stability rule,
// restated as a Testable Property in §8).
func applySort(sql SelectBuilder, sorts []model.SortOrder) SelectBuilder {
	for _, s := range sorts {
		if s.Field == model.SortByTitleNatural {
			// Not applied in SQL; see SortTitleNaturally below. The
			// SQL-level query still needs a deterministic base order to make
			// pagination stable.
			continue
		}
		col, ok := sortColumns[s.Field]
		if !ok {
			continue
		}
		if s.Direction == model.SortDescending {
			col += " DESC"
		}
		sql = sql.OrderBy(col)
	}
	return sql.OrderBy("row_id ASC")
}

// SortTitleNaturally reorders an already-paginated result set by its primary
// title using natural (non-lexicographic) string comparison, so "Track 2"
// sorts before "Track 10". Bounded to the current page, per sort_compiler's
// grounding on the teacher's maruel/natural dependency.
func SortTitleNaturally(titles []string, indices []int, descending bool) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	less := func(i, j int) bool { return natural.Less(titles[out[i]], titles[out[j]]) }
	if descending {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}
