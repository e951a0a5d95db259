package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
)

const userColumns = `id, email, name, photo_url, role, created_at, updated_at`

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts u or refreshes the profile fields of the existing row with
// the same email. The returned user carries the stored id and role.
func (r *UserRepository) Upsert(ctx context.Context, u *domain.User) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url, updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns,
		u.ID, u.Email, u.Name, u.PhotoURL, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	stored, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return stored, nil
}

// GetByEmail loads a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", email)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
