package domain

import "sort"

const (
	paginationNavLen    = 8
	paginationWindowLen = 2
)

// Pagination describes the page links rendered under a listing. Prev and
// Next are zero when there is no such page.
type Pagination struct {
	Show    bool
	Current int
	Pages   int
	Prev    int
	Next    int
	Numbers []int
}

func NewPagination(current, pages int) Pagination {
	p := Pagination{Current: current, Pages: pages}
	if pages <= 1 {
		return p
	}
	p.Show = true
	if current > 1 {
		p.Prev = current - 1
	}
	if current < pages {
		p.Next = current + 1
	}

	if pages <= paginationNavLen {
		p.Numbers = make([]int, 0, pages)
		for i := 1; i <= pages; i++ {
			p.Numbers = append(p.Numbers, i)
		}
		return p
	}

	from, to := paginationWindow(current, pages)
	numbers := make([]int, 0, paginationNavLen)
	for i := from; i <= to; i++ {
		numbers = append(numbers, i)
	}
	lower, upper := 1, pages
	for len(numbers) < paginationNavLen {
		if lower < from {
			numbers = append(numbers, lower)
		}
		if upper > to && len(numbers) < paginationNavLen {
			numbers = append(numbers, upper)
		}
		lower++
		upper--
	}
	sort.Ints(numbers)
	p.Numbers = numbers
	return p
}

func paginationWindow(current, pages int) (int, int) {
	from := current - paginationWindowLen
	to := current + paginationWindowLen
	if from < 1 {
		to += 1 - from
		from = 1
	}
	if to > pages {
		from -= to - pages
		to = pages
		if from < 1 {
			from = 1
		}
	}
	return from, to
}

// PageRequest is a 1-based page of a listing.
type PageRequest struct {
	Page    int
	PerPage int
}

func NewPageRequest(page, perPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 200 {
		perPage = 200
	}
	return PageRequest{Page: page, PerPage: perPage}
}

func (p PageRequest) Limit() int  { return p.PerPage }
func (p PageRequest) Offset() int { return (p.Page - 1) * p.PerPage }

type PageResult[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
}

func (r PageResult[T]) Pages() int {
	if r.PerPage <= 0 || r.Total <= 0 {
		return 1
	}
	return (r.Total + r.PerPage - 1) / r.PerPage
}

func (r PageResult[T]) Pagination() Pagination { return NewPagination(r.Page, r.Pages()) }
