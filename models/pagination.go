package models

// PaginationData describes where a page sits in a listing
type PaginationData struct {
	CurrentPage     int   `json:"currentPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	NextPage        int   `json:"nextPage"`
	PreviousPage    int   `json:"previousPage"`
	LastPage        int   `json:"lastPage"`
	Total           int64 `json:"total"`
}

// ProductsPage is one page of a product listing
type ProductsPage struct {
	Products       []Product      `json:"products"`
	PaginationData PaginationData `json:"paginationData"`
}

// NewPaginationData computes the navigation fields for page given total items.
// Pages start at 1; a page below 1 is treated as the first page and a page past
// the end as the empty page right after the last one.
func NewPaginationData(page, perPage int, total int64) PaginationData {
	if perPage < 1 {
		perPage = 1
	}
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > lastPage+1 {
		page = lastPage + 1
	}
	return PaginationData{
		CurrentPage:     page,
		HasNextPage:     int64(page)*int64(perPage) < total,
		HasPreviousPage: page > 1,
		NextPage:        page + 1,
		PreviousPage:    page - 1,
		LastPage:        lastPage,
		Total:           total,
	}
}

// Skip is the number of items before the current page
func (p PaginationData) Skip(perPage int) int64 {
	return int64(p.CurrentPage-1) * int64(perPage)
}
