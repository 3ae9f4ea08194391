package feed

import (
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/pkg/pagination"
)

// Paginator tracks the current page of a feed. The page is always within
// [1, PageCount()]. It is not safe for concurrent use; View guards it.
type Paginator struct {
	page  int
	size  int
	total int
}

// NewPaginator starts on page 1 with no rows.
func NewPaginator(size int) *Paginator {
	if size < 1 {
		size = pagination.DefaultPerPage
	}
	return &Paginator{page: 1, size: size}
}

func (p *Paginator) Page() int  { return p.page }
func (p *Paginator) Size() int  { return p.size }
func (p *Paginator) Total() int { return p.total }

// PageCount is ceil(total/size), at least 1.
func (p *Paginator) PageCount() int {
	return pagination.TotalPages(p.total, p.size)
}

// Range is the row window of the current page.
func (p *Paginator) Range() query.Range {
	return query.PageRange(p.page, p.size)
}

func (p *Paginator) HasNext() bool { return p.page < p.PageCount() }
func (p *Paginator) HasPrev() bool { return p.page > 1 }

// GoTo moves to page n clamped into range and reports whether the page
// changed.
func (p *Paginator) GoTo(n int) bool {
	n = max(1, min(n, p.PageCount()))
	if n == p.page {
		return false
	}
	p.page = n
	return true
}

func (p *Paginator) Next() bool  { return p.GoTo(p.page + 1) }
func (p *Paginator) Prev() bool  { return p.GoTo(p.page - 1) }
func (p *Paginator) First() bool { return p.GoTo(1) }
func (p *Paginator) Last() bool  { return p.GoTo(p.PageCount()) }

// SetPageSize changes the size and returns to page 1. Non-positive sizes are
// ignored.
func (p *Paginator) SetPageSize(n int) bool {
	if n < 1 {
		return false
	}
	changed := n != p.size || p.page != 1
	p.size = n
	p.page = 1
	return changed
}

// SetTotal records the authoritative row count and re-clamps the page. It
// reports whether the page moved.
func (p *Paginator) SetTotal(n int) bool {
	p.total = max(0, n)
	return p.GoTo(p.page)
}
