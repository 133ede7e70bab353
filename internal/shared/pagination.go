package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata. The requested page is clamped
// into [1, max(TotalPages, 1)].
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if page > totalPages {
		page = totalPages
	}
	if page <= 0 {
		page = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Bounds returns the half-open slice range for the current page.
func (p Pagination) Bounds() (int, int) {
	start := (p.Page - 1) * p.PerPage
	if start > p.Total {
		start = p.Total
	}
	end := start + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage is the previous page number, clamped to 1.
func (p Pagination) PrevPage() int {
	if p.Page > 1 {
		return p.Page - 1
	}
	return 1
}

// NextPage is the next page number, clamped to TotalPages.
func (p Pagination) NextPage() int {
	if p.Page < p.TotalPages {
		return p.Page + 1
	}
	return p.Page
}

// FirstItem is the 1-based index of the first row shown, 0 when empty.
func (p Pagination) FirstItem() int {
	start, end := p.Bounds()
	if end == start {
		return 0
	}
	return start + 1
}

// LastItem is the 1-based index of the last row shown.
func (p Pagination) LastItem() int {
	_, end := p.Bounds()
	return end
}
