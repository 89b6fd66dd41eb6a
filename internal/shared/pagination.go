package shared

import "math"

// PageSizes lists the selectable page sizes for admin listings.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is used when the caller does not pick a page size.
const DefaultPageSize = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata, clamping page into range.
func NewPagination(page, perPage, total int) Pagination {
	if !validPageSize(perPage) {
		perPage = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Slice returns the [from, to) bounds of the current page over a list of total items.
func (p Pagination) Slice() (int, int) {
	from := (p.Page - 1) * p.PerPage
	if from > p.Total {
		from = p.Total
	}
	to := from + p.PerPage
	if to > p.Total {
		to = p.Total
	}
	return from, to
}

func validPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}
