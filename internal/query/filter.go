// Package query turns feed filter selections into a store-agnostic query
// description.
package query

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/utafrali/puros/pkg/errors"
)

// SortKey selects the feed order.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortRatingHigh SortKey = "rating_high"
	SortRatingLow  SortKey = "rating_low"
	SortName       SortKey = "name"
)

// DateRange is a lower-bound bucket on the review date. The zero value means
// no constraint.
type DateRange string

const (
	DateAny   DateRange = ""
	DateWeek  DateRange = "week"
	DateMonth DateRange = "month"
	DateYear  DateRange = "year"
)

// Rating floors accepted by FilterState.
const (
	MinRatingFloor = 1
	MaxRatingFloor = 4
)

// FilterState is the set of feed criteria. A nil RatingFloor, empty
// DateRange and empty NameSubstring each mean "no constraint".
type FilterState struct {
	RatingFloor   *int      `json:"rating_floor,omitempty"`
	DateRange     DateRange `json:"date_range,omitempty"`
	NameSubstring string    `json:"name_substring,omitempty"`
	SortKey       SortKey   `json:"sort_key"`
}

// DefaultFilterState is the unfiltered feed, newest first.
func DefaultFilterState() FilterState {
	return FilterState{SortKey: SortNewest}
}

// Rating returns a rating floor pointer; out-of-range values yield nil.
func Rating(r int) *int {
	if r < MinRatingFloor || r > MaxRatingFloor {
		return nil
	}
	return &r
}

// Validate rejects values no UI control can produce.
func (f FilterState) Validate() error {
	if f.RatingFloor != nil && (*f.RatingFloor < MinRatingFloor || *f.RatingFloor > MaxRatingFloor) {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", MinRatingFloor, MaxRatingFloor))
	}
	if _, err := ParseDateRange(string(f.DateRange)); err != nil {
		return err
	}
	if _, err := ParseSortKey(string(f.SortKey)); err != nil {
		return err
	}
	return nil
}

// Normalized returns f with the default sort key filled in and the name
// trimmed.
func (f FilterState) Normalized() FilterState {
	if f.SortKey == "" {
		f.SortKey = SortNewest
	}
	f.NameSubstring = strings.TrimSpace(f.NameSubstring)
	return f
}

// Equal reports whether f and o select the same rows in the same order.
func (f FilterState) Equal(o FilterState) bool {
	f, o = f.Normalized(), o.Normalized()
	if (f.RatingFloor == nil) != (o.RatingFloor == nil) {
		return false
	}
	if f.RatingFloor != nil && *f.RatingFloor != *o.RatingFloor {
		return false
	}
	return f.DateRange == o.DateRange && f.NameSubstring == o.NameSubstring && f.SortKey == o.SortKey
}

// ActiveCount counts fields that differ from their default. A non-newest
// sort counts as one.
func (f FilterState) ActiveCount() int {
	f = f.Normalized()
	n := 0
	if f.RatingFloor != nil {
		n++
	}
	if f.DateRange != DateAny {
		n++
	}
	if f.NameSubstring != "" {
		n++
	}
	if f.SortKey != SortNewest {
		n++
	}
	return n
}

// ParseSortKey parses s; empty selects newest.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortRatingHigh, SortRatingLow, SortName:
		return k, nil
	case "cigar_name":
		return SortName, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown sort %q", s))
	}
}

// ParseDateRange parses s; empty means any date.
func ParseDateRange(s string) (DateRange, error) {
	switch d := DateRange(s); d {
	case DateAny, DateWeek, DateMonth, DateYear:
		return d, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown date range %q", s))
	}
}

// ParseRatingFloor parses s; empty means no floor.
func ParseRatingFloor(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	r, err := strconv.Atoi(s)
	if err != nil || Rating(r) == nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be an integer between %d and %d", MinRatingFloor, MaxRatingFloor))
	}
	return &r, nil
}
