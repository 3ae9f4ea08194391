package http

import (
	"net/http"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/pkg/middleware"
	"github.com/utafrali/puros/pkg/pagination"
)

type pageLimits struct {
	defaultPerPage int
	maxPerPage     int
}

func (p pageLimits) params(r *http.Request) pagination.Params {
	def, limit := p.defaultPerPage, p.maxPerPage
	if def <= 0 {
		def = pagination.DefaultPerPage
	}
	if limit <= 0 {
		limit = pagination.MaxPerPage
	}
	return pagination.FromRequestWithLimits(r, def, limit)
}

// viewerID returns the authenticated viewer's id or "".
func viewerID(r *http.Request) string {
	if v := middleware.ViewerFromContext(r.Context()); v != nil {
		return v.ID
	}
	return ""
}

func viewer(r *http.Request) domain.Viewer {
	if v := middleware.ViewerFromContext(r.Context()); v != nil {
		return domain.Viewer{ID: v.ID, Email: v.Email}
	}
	return domain.Viewer{}
}

// parseFilters reads rating, date_range, q and sort from the query string.
func parseFilters(r *http.Request) (query.FilterState, error) {
	q := r.URL.Query()

	rating, err := query.ParseRatingFloor(q.Get("rating"))
	if err != nil {
		return query.FilterState{}, err
	}
	dateRange, err := query.ParseDateRange(q.Get("date_range"))
	if err != nil {
		return query.FilterState{}, err
	}
	sortKey, err := query.ParseSortKey(q.Get("sort"))
	if err != nil {
		return query.FilterState{}, err
	}

	return query.FilterState{
		RatingFloor:   rating,
		DateRange:     dateRange,
		NameSubstring: q.Get("q"),
		SortKey:       sortKey,
	}.Normalized(), nil
}
