package persistence

import (
	"fmt"

	. "github.com/Masterminds/squirrel"
)

// Common filterFunc constructors for the ad-hoc QueryOptions.Filters surface
// (collections, playlists), mirroring the teacher's idFilter/fullTextFilter/
// booleanFilter helpers referenced by album_repository.go's filter registry.

func equalsFilter(column string) filterFunc {
	return func(_ string, value interface{}) Sqlizer {
		return Eq{column: value}
	}
}

func fullTextContainsFilter(column string) filterFunc {
	return func(_ string, value interface{}) Sqlizer {
		return Like{column: "%" + escapeLike(fmt.Sprint(value)) + "%"}
	}
}
