package model

import "github.com/Masterminds/squirrel"

// QueryOptions narrows a plain GetAll/CountAll call without going through the
// full Filter/SortOrder/Pagination surface of the query compiler — used for
// simple administrative listings (e.g. collections, playlists) that don't
// need §4.3's search semantics.
type QueryOptions struct {
	Filters squirrel.Sqlizer
	Sort    string
	Order   string
	Max     int
	Offset  int
}
