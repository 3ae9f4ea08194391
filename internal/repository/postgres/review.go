package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/pkg/database"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

const reviewSelect = `
		SELECT r.id, r.author_id, r.cigar_name, r.rating, r.notes, r.review_date, r.images,
		       r.created_at, r.updated_at,
		       COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), COALESCE(p.avatar_url, '')
		FROM reviews r
		LEFT JOIN profiles p ON p.id = r.author_id`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Find returns the reviews selected by q.
func (r *ReviewRepository) Find(ctx context.Context, q query.Query) (reviews []domain.Review, err error) {
	where, args, err := buildWhere(q.Filters, nil)
	if err != nil {
		return nil, err
	}
	order, err := buildOrder(q.Order)
	if err != nil {
		return nil, err
	}
	limit, args := buildLimit(q.Range, args)

	stmt := strings.Join([]string{reviewSelect, where, order, limit}, "\n\t\t")

	ctx, end := database.TraceQuery(ctx, "FindReviews", "reviews", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// Count returns the number of reviews matching q's filters.
func (r *ReviewRepository) Count(ctx context.Context, q query.Query) (total int, err error) {
	where, args, err := buildWhere(q.Filters, nil)
	if err != nil {
		return 0, err
	}
	stmt := "SELECT count(*) FROM reviews r " + where

	ctx, end := database.TraceQuery(ctx, "CountReviews", "reviews", stmt)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return total, nil
}

// GetByID retrieves a review with its author summary.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx, reviewSelect+"\n\t\tWHERE r.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	stmt := `
		INSERT INTO reviews (id, author_id, cigar_name, rating, notes, review_date, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, stmt,
		rv.ID,
		rv.AuthorID,
		rv.CigarName,
		rv.Rating,
		rv.Notes,
		rv.ReviewDate,
		imagesOrEmpty(rv.Images),
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "id", rv.ID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// Update rewrites a review owned by rv.AuthorID.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) (int64, error) {
	stmt := `
		UPDATE reviews
		SET cigar_name = $1, rating = $2, notes = $3, review_date = $4, images = $5, updated_at = $6
		WHERE id = $7 AND author_id = $8`

	ct, err := r.pool.Exec(ctx, stmt,
		rv.CigarName,
		rv.Rating,
		rv.Notes,
		rv.ReviewDate,
		imagesOrEmpty(rv.Images),
		rv.UpdatedAt,
		rv.ID,
		rv.AuthorID,
	)
	if err != nil {
		return 0, fmt.Errorf("update review: %w", err)
	}

	return ct.RowsAffected(), nil
}

// Delete removes a review owned by authorID.
func (r *ReviewRepository) Delete(ctx context.Context, id, authorID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete review: %w", err)
	}
	return ct.RowsAffected(), nil
}

// CountByAuthor returns how many reviews authorID has written.
func (r *ReviewRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reviews WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reviews by author: %w", err)
	}
	return n, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv     domain.Review
		author domain.ProfileSummary
	)
	if err := row.Scan(
		&rv.ID,
		&rv.AuthorID,
		&rv.CigarName,
		&rv.Rating,
		&rv.Notes,
		&rv.ReviewDate,
		&rv.Images,
		&rv.CreatedAt,
		&rv.UpdatedAt,
		&author.FirstName,
		&author.LastName,
		&author.AvatarURL,
	); err != nil {
		return nil, err
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	rv.Author = &author
	return &rv, nil
}

func imagesOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
