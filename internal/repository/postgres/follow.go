package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/pkg/database"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// FollowRepository implements repository.FollowRepository using PostgreSQL.
type FollowRepository struct {
	pool database.DBTX
}

func NewFollowRepository(pool database.DBTX) *FollowRepository {
	return &FollowRepository{pool: pool}
}

// Create inserts a follow. A duplicate pair is reported as AlreadyExists.
func (r *FollowRepository) Create(ctx context.Context, f *domain.Follow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO follows (id, follower_id, following_id, created_at) VALUES ($1, $2, $3, $4)`,
		f.ID, f.FollowerID, f.FollowingID, f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("follow", "following_id", f.FollowingID)
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID string) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete follow: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *FollowRepository) Get(ctx context.Context, followerID, followingID string) (*domain.Follow, error) {
	var f domain.Follow
	err := r.pool.QueryRow(ctx, `
		SELECT id, follower_id, following_id, created_at
		FROM follows
		WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID,
	).Scan(&f.ID, &f.FollowerID, &f.FollowingID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get follow: %w", err)
	}
	return &f, nil
}

// ListFollowerIDs returns the IDs of everyone following followingID.
func (r *FollowRepository) ListFollowerIDs(ctx context.Context, followingID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT follower_id FROM follows WHERE following_id = $1 ORDER BY created_at`,
		followingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan follower row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follower rows: %w", err)
	}
	return ids, nil
}

func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM follows WHERE following_id = $1`, userID)
}

func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM follows WHERE follower_id = $1`, userID)
}

func (r *FollowRepository) count(ctx context.Context, stmt, userID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, stmt, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}
