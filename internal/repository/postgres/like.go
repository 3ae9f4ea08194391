package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/pkg/database"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// LikeRepository implements repository.LikeRepository using PostgreSQL.
type LikeRepository struct {
	pool database.DBTX
}

func NewLikeRepository(pool database.DBTX) *LikeRepository {
	return &LikeRepository{pool: pool}
}

func (r *LikeRepository) Create(ctx context.Context, l *domain.Like) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO likes (id, review_id, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		l.ID, l.ReviewID, l.UserID, l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("like", "review_id", l.ReviewID)
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *LikeRepository) Delete(ctx context.Context, reviewID, userID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE review_id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete like: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *LikeRepository) Exists(ctx context.Context, reviewID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE review_id = $1 AND user_id = $2)`,
		reviewID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *LikeRepository) CountByReview(ctx context.Context, reviewID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM likes WHERE review_id = $1`, reviewID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}
