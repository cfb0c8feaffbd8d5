package services

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is the paging part of every list query.
type PageRequest struct {
	PageNumber int `form:"page_number" json:"page_number"`
	PageSize   int `form:"page_size" json:"page_size"`
}

// Normalize clamps the page number to at least 1 and the page size to
// 1..MaxPageSize, using DefaultPageSize when unset.
func (p PageRequest) Normalize() PageRequest {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPagedResult[T any](items []T, total int64, page PageRequest) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if page.PageSize > 0 {
		pages = int((total + int64(page.PageSize) - 1) / int64(page.PageSize))
	}
	return PagedResult[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
		TotalPages: pages,
	}
}
