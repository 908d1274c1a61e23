package model

// Pagination is (limit, offset). Offset without a limit is a caller error:
// the compiler ignores the offset and applies no pagination at all.
type Pagination struct {
	Limit  *int64
	Offset *int64
}

// NoPagination returns every matching row.
func NoPagination() Pagination {
	return Pagination{}
}
