package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/pkg/database"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

const commentSelect = `
		SELECT c.id, c.review_id, c.author_id, c.content, c.created_at, c.updated_at,
		       COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), COALESCE(p.avatar_url, '')
		FROM comments c
		LEFT JOIN profiles p ON p.id = c.author_id`

// CommentRepository implements repository.CommentRepository using PostgreSQL.
type CommentRepository struct {
	pool database.DBTX
}

func NewCommentRepository(pool database.DBTX) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO comments (id, review_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ReviewID, c.AuthorID, c.Content, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, commentSelect+"\n\t\tWHERE c.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("comment", id)
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListByReview returns one window of a review's comments, oldest first.
func (r *CommentRepository) ListByReview(ctx context.Context, reviewID string, rng query.Range) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, commentSelect+`
		WHERE c.review_id = $1
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT $2 OFFSET $3`,
		reviewID, rng.Limit(), max(rng.Start, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) CountByReview(ctx context.Context, reviewID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE review_id = $1`, reviewID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// Update rewrites the content of a comment owned by c.AuthorID.
func (r *CommentRepository) Update(ctx context.Context, c *domain.Comment) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3 AND author_id = $4`,
		c.Content, c.UpdatedAt, c.ID, c.AuthorID,
	)
	if err != nil {
		return 0, fmt.Errorf("update comment: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *CommentRepository) Delete(ctx context.Context, id, authorID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete comment: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var (
		c      domain.Comment
		author domain.ProfileSummary
	)
	if err := row.Scan(
		&c.ID,
		&c.ReviewID,
		&c.AuthorID,
		&c.Content,
		&c.CreatedAt,
		&c.UpdatedAt,
		&author.FirstName,
		&author.LastName,
		&author.AvatarURL,
	); err != nil {
		return nil, err
	}
	c.Author = &author
	return &c, nil
}
