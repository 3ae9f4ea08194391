package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
		offset     int
	}{
		{"", 1, DefaultPerPage, 0},
		{"?page=3&per_page=10", 3, 10, 20},
		{"?page=-1", 1, DefaultPerPage, 0},
		{"?page=0", 1, DefaultPerPage, 0},
		{"?page=two", 1, DefaultPerPage, 0},
		{"?per_page=100", 1, 100, 0},
		{"?per_page=101", 1, DefaultPerPage, 0},
		{"?per_page=0", 1, DefaultPerPage, 0},
		{"?page=2&per_page=5", 2, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest("GET", "/api/v1/reviews"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.size, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestFromRequestWithLimits_CommentPages(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/reviews/r1/comments?page=2", nil)
	p := FromRequestWithLimits(r, 10, 50)
	assert.Equal(t, Params{Page: 2, PerPage: 10, Offset: 10}, p)

	r = httptest.NewRequest("GET", "/api/v1/reviews/r1/comments?per_page=60", nil)
	assert.Equal(t, 10, FromRequestWithLimits(r, 10, 50).PerPage)
}

func TestTotalPages(t *testing.T) {
	for _, tt := range []struct{ total, per, want int }{
		{0, 20, 1}, {1, 20, 1}, {20, 20, 1}, {21, 20, 2}, {95, 10, 10}, {5, 0, 1},
	} {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.per), "total=%d per=%d", tt.total, tt.per)
	}
}

// A page past the end after a filter shrinks the result lands on the last page.
func TestParams_Clamp(t *testing.T) {
	p := Params{Page: 7, PerPage: 10, Offset: 60}.Clamp(25)
	assert.Equal(t, Params{Page: 3, PerPage: 10, Offset: 20}, p)

	p = Params{Page: 4, PerPage: 10}.Clamp(0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.Offset)
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name             string
		total, page      int
		pages            int
		hasNext, hasPrev bool
	}{
		{"single page", 3, 1, 1, false, false},
		{"first of many", 45, 1, 3, true, false},
		{"middle", 45, 2, 3, true, true},
		{"last", 45, 3, 3, false, true},
		{"empty feed", 0, 1, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResult([]string{"review"}, tt.total, Params{Page: tt.page, PerPage: 20})
			assert.Equal(t, tt.total, res.TotalCount)
			assert.Equal(t, tt.pages, res.TotalPages)
			assert.Equal(t, tt.hasNext, res.HasNext)
			assert.Equal(t, tt.hasPrev, res.HasPrev)
		})
	}
}

func TestNewResult_NilDataEncodesAsEmpty(t *testing.T) {
	res := NewResult[int](nil, 0, DefaultParams())
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}
