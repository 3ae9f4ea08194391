package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/utafrali/puros/internal/domain"
)

// Matches reports whether r satisfies every filter of q. Unknown fields never
// match.
func (q Query) Matches(r domain.Review) bool {
	for _, c := range q.Filters {
		if !matchCondition(c, r) {
			return false
		}
	}
	return true
}

func matchCondition(c Condition, r domain.Review) bool {
	switch c.Field {
	case FieldID:
		return compareString(c, r.ID)
	case FieldAuthorID:
		return compareString(c, r.AuthorID)
	case FieldCigarName:
		return compareString(c, r.CigarName)
	case FieldRating:
		v, ok := c.Value.(float64)
		return ok && compareOrdered(c.Op, cmp.Compare(r.Rating, v))
	case FieldReviewDate:
		v, ok := c.Value.(time.Time)
		return ok && compareOrdered(c.Op, r.ReviewDate.Compare(v))
	case FieldCreatedAt:
		v, ok := c.Value.(time.Time)
		return ok && compareOrdered(c.Op, r.CreatedAt.Compare(v))
	default:
		return false
	}
}

func compareString(c Condition, got string) bool {
	v, ok := c.Value.(string)
	if !ok {
		return false
	}
	if c.Op == OpILike {
		return likeMatch(strings.ToLower(v), strings.ToLower(got))
	}
	return compareOrdered(c.Op, strings.Compare(got, v))
}

func compareOrdered(op Op, c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	default:
		return false
	}
}

// likeMatch implements SQL LIKE with \ as the escape character.
func likeMatch(pattern, s string) bool {
	p, v := []rune(pattern), []rune(s)
	var match func(i, j int) bool
	match = func(i, j int) bool {
		for i < len(p) {
			switch p[i] {
			case '%':
				for k := j; k <= len(v); k++ {
					if match(i+1, k) {
						return true
					}
				}
				return false
			case '_':
				if j >= len(v) {
					return false
				}
			case '\\':
				if i+1 < len(p) {
					i++
				}
				fallthrough
			default:
				if j >= len(v) || v[j] != p[i] {
					return false
				}
			}
			i++
			j++
		}
		return j == len(v)
	}
	return match(0, 0)
}

// Compare orders a and b by q's order terms.
func (q Query) Compare(a, b domain.Review) int {
	for _, t := range q.Order {
		var c int
		switch t.Field {
		case FieldID:
			c = strings.Compare(a.ID, b.ID)
		case FieldAuthorID:
			c = strings.Compare(a.AuthorID, b.AuthorID)
		case FieldCigarName:
			c = strings.Compare(strings.ToLower(a.CigarName), strings.ToLower(b.CigarName))
		case FieldRating:
			c = cmp.Compare(a.Rating, b.Rating)
		case FieldReviewDate:
			c = a.ReviewDate.Compare(b.ReviewDate)
		case FieldCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if t.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Evaluate runs q over rows in memory and returns the selected window and
// the total number of matching rows.
func (q Query) Evaluate(rows []domain.Review) ([]domain.Review, int) {
	matched := make([]domain.Review, 0, len(rows))
	for _, r := range rows {
		if q.Matches(r) {
			matched = append(matched, r)
		}
	}
	slices.SortStableFunc(matched, q.Compare)

	total := len(matched)
	if q.Range == nil {
		return matched, total
	}
	start := min(max(q.Range.Start, 0), total)
	end := min(start+q.Range.Limit(), total)
	return matched[start:end], total
}
