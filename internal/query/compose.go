package query

import (
	"strings"
	"time"

	"github.com/utafrali/puros/internal/domain"
)

// Collection is the review table.
const Collection = "reviews"

// Queryable review fields.
const (
	FieldID         = "id"
	FieldAuthorID   = "author_id"
	FieldCigarName  = "cigar_name"
	FieldRating     = "rating"
	FieldReviewDate = "review_date"
	FieldCreatedAt  = "created_at"
)

// Op is a comparison operator.
type Op string

const (
	OpEq    Op = "eq"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpILike Op = "ilike"
)

// Condition is one conjunct of a query predicate. ILike values are patterns
// where % and _ are wildcards and \ escapes.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// OrderTerm is one sort key.
type OrderTerm struct {
	Field string
	Desc  bool
}

// Range is a zero-based inclusive row window.
type Range struct {
	Start int
	End   int
}

// Limit returns the number of rows in r.
func (r Range) Limit() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Query is a fully specified read against a collection. A nil Range means
// all rows.
type Query struct {
	Collection string
	Filters    []Condition
	Order      []OrderTerm
	Range      *Range
}

// CountQuery returns q with the same filters and no order or range.
func (q Query) CountQuery() Query {
	return Query{
		Collection: q.Collection,
		Filters:    append([]Condition(nil), q.Filters...),
	}
}

// PageRange returns the rows of 1-based page at the given size.
func PageRange(page, size int) Range {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	return Range{Start: size * (page - 1), End: size*page - 1}
}

// StartDate returns the earliest review date bucket admits relative to
// today, or the zero time for DateAny. Month and year steps normalize the
// way time.AddDate does.
func StartDate(bucket DateRange, today time.Time) time.Time {
	d := domain.Date(today)
	switch bucket {
	case DateWeek:
		return d.AddDate(0, 0, -7)
	case DateMonth:
		return d.AddDate(0, -1, 0)
	case DateYear:
		return d.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching s anywhere, with
// wildcard characters in s matched literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

var sortOrders = map[SortKey][]OrderTerm{
	SortNewest:     {{Field: FieldReviewDate, Desc: true}, {Field: FieldCreatedAt, Desc: true}},
	SortOldest:     {{Field: FieldReviewDate}, {Field: FieldCreatedAt}},
	SortRatingHigh: {{Field: FieldRating, Desc: true}, {Field: FieldReviewDate, Desc: true}},
	SortRatingLow:  {{Field: FieldRating}, {Field: FieldReviewDate, Desc: true}},
	SortName:       {{Field: FieldCigarName}, {Field: FieldReviewDate, Desc: true}},
}

// Compose builds the feed query for active criteria. subjectUserID scopes
// the feed to one author when non-empty. The result depends only on its
// arguments. A rating floor r keeps the band [r, r+1). Every order ends with
// id ascending so pages never overlap on ties.
func Compose(active FilterState, subjectUserID string, rng Range, today time.Time) Query {
	active = active.Normalized()

	var filters []Condition
	if subjectUserID != "" {
		filters = append(filters, Condition{Field: FieldAuthorID, Op: OpEq, Value: subjectUserID})
	}
	if active.RatingFloor != nil {
		r := float64(*active.RatingFloor)
		filters = append(filters,
			Condition{Field: FieldRating, Op: OpGte, Value: r},
			Condition{Field: FieldRating, Op: OpLt, Value: r + 1},
		)
	}
	if active.NameSubstring != "" {
		filters = append(filters, Condition{Field: FieldCigarName, Op: OpILike, Value: ContainsPattern(active.NameSubstring)})
	}
	if active.DateRange != DateAny {
		filters = append(filters, Condition{Field: FieldReviewDate, Op: OpGte, Value: StartDate(active.DateRange, today)})
	}

	order, ok := sortOrders[active.SortKey]
	if !ok {
		order = sortOrders[SortNewest]
	}
	order = append(append([]OrderTerm(nil), order...), OrderTerm{Field: FieldID})

	return Query{
		Collection: Collection,
		Filters:    filters,
		Order:      order,
		Range:      &rng,
	}
}
