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

const profileColumns = `id, email, first_name, last_name, avatar_url, created_at, updated_at`

// ProfileRepository implements repository.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool database.DBTX
}

func NewProfileRepository(pool database.DBTX) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Ensure inserts p unless a profile with its ID exists, then returns the
// stored row.
func (r *ProfileRepository) Ensure(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Email, p.FirstName, p.LastName, p.AvatarURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("profile", id)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetByIDs returns the profiles that exist among ids, keyed by ID.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return out, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET first_name = $1, last_name = $2, avatar_url = $3, updated_at = $4
		WHERE id = $5`,
		p.FirstName, p.LastName, p.AvatarURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("profile", p.ID)
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
