package feed

import (
	"strconv"

	"github.com/utafrali/puros/internal/query"
)

// Field names one editable filter criterion.
type Field int

const (
	FieldRating Field = iota
	FieldDateRange
	FieldName
	FieldSort
)

// Filters keeps the active criteria that drive the feed and a pending copy
// edited in the filter panel. Edits to the pending copy never reach the
// feed until Apply.
type Filters struct {
	active    query.FilterState
	pending   query.FilterState
	panelOpen bool
}

// NewFilters starts with the default criteria.
func NewFilters() *Filters {
	return &Filters{
		active:  query.DefaultFilterState(),
		pending: query.DefaultFilterState(),
	}
}

func (f *Filters) Active() query.FilterState  { return f.active }
func (f *Filters) Pending() query.FilterState { return f.pending }
func (f *Filters) PanelOpen() bool            { return f.panelOpen }

// OpenPanel starts editing from the active criteria.
func (f *Filters) OpenPanel() {
	f.pending = f.active
	f.panelOpen = true
}

// ClosePanel discards pending edits.
func (f *Filters) ClosePanel() {
	f.panelOpen = false
}

// EditPending sets one pending field from its string form. Values no control
// produces fall back to the field's unset value.
func (f *Filters) EditPending(field Field, value string) {
	switch field {
	case FieldRating:
		n, err := strconv.Atoi(value)
		if err != nil {
			f.pending.RatingFloor = nil
			return
		}
		f.pending.RatingFloor = query.Rating(n)
	case FieldDateRange:
		d, err := query.ParseDateRange(value)
		if err != nil {
			d = query.DateAny
		}
		f.pending.DateRange = d
	case FieldName:
		f.pending.NameSubstring = value
	case FieldSort:
		k, err := query.ParseSortKey(value)
		if err != nil {
			k = query.SortNewest
		}
		f.pending.SortKey = k
	}
}

// ClearPending resets the pending criteria to the defaults.
func (f *Filters) ClearPending() {
	f.pending = query.DefaultFilterState()
}

// Apply commits the pending criteria, closes the panel and reports whether
// the active criteria changed.
func (f *Filters) Apply() bool {
	next := f.pending.Normalized()
	changed := !next.Equal(f.active)
	f.active = next
	f.pending = next
	f.panelOpen = false
	return changed
}

// ActiveFilterCount is the badge count for the active criteria.
func (f *Filters) ActiveFilterCount() int {
	return f.active.ActiveCount()
}
