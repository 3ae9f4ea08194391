package postgres

import (
	"fmt"
	"strings"

	"github.com/utafrali/puros/internal/query"
)

// reviewColumns maps queryable fields to SQL expressions. Anything not listed
// is rejected so field names never reach the statement unchecked.
var reviewColumns = map[string]string{
	query.FieldID:         "r.id",
	query.FieldAuthorID:   "r.author_id",
	query.FieldCigarName:  "r.cigar_name",
	query.FieldRating:     "r.rating",
	query.FieldReviewDate: "r.review_date",
	query.FieldCreatedAt:  "r.created_at",
}

// orderColumns overrides reviewColumns for ORDER BY. Names sort without
// regard to case.
var orderColumns = map[string]string{
	query.FieldCigarName: "lower(r.cigar_name)",
}

// buildWhere renders filters as a WHERE clause with positional arguments
// numbered from len(args)+1.
func buildWhere(filters []query.Condition, args []any) (string, []any, error) {
	if len(filters) == 0 {
		return "", args, nil
	}

	conditions := make([]string, 0, len(filters))
	for _, f := range filters {
		col, ok := reviewColumns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", f.Field)
		}
		args = append(args, f.Value)
		n := len(args)

		switch f.Op {
		case query.OpEq:
			conditions = append(conditions, fmt.Sprintf("%s = $%d", col, n))
		case query.OpGte:
			conditions = append(conditions, fmt.Sprintf("%s >= $%d", col, n))
		case query.OpLt:
			conditions = append(conditions, fmt.Sprintf("%s < $%d", col, n))
		case query.OpILike:
			conditions = append(conditions, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, n))
		default:
			return "", nil, fmt.Errorf("unknown filter op %q", f.Op)
		}
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

func buildOrder(order []query.OrderTerm) (string, error) {
	if len(order) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(order))
	for _, o := range order {
		col, ok := orderColumns[o.Field]
		if !ok {
			col, ok = reviewColumns[o.Field]
		}
		if !ok {
			return "", fmt.Errorf("unknown order field %q", o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}

	return "ORDER BY " + strings.Join(terms, ", "), nil
}

// buildLimit renders rng as LIMIT/OFFSET arguments.
func buildLimit(rng *query.Range, args []any) (string, []any) {
	if rng == nil {
		return "", args
	}
	args = append(args, rng.Limit(), max(rng.Start, 0))
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
