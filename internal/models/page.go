package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a zero-based page index plus a page size.
type PageRequest struct {
	Page int
	Size int
}

// Sanitize clamps the request to sane bounds.
func (p PageRequest) Sanitize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the first element of the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// TotalPages returns the number of pages needed for total elements.
func (p PageRequest) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
