package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/repository"
	apperrors "github.com/Mahbub2001/morgan-backend/pkg/errors"
	"github.com/Mahbub2001/morgan-backend/pkg/validator"
)

// TokenIssuer signs access tokens. *auth.JWTManager satisfies it.
type TokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}

// UpsertUserRequest carries the profile fields a client may set.
type UpsertUserRequest struct {
	Name     string `json:"name" validate:"max=120"`
	PhotoURL string `json:"photoUrl" validate:"omitempty,url,max=500"`
}

// UserService registers users and hands out tokens.
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, logger: logger, now: time.Now}
}

// Upsert creates or updates the user keyed by email and issues a token.
// New users get the user role; an existing role is kept.
func (s *UserService) Upsert(ctx context.Context, email string, req UpsertUserRequest) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.Var(email, "required,email"); err != nil {
		return nil, "", apperrors.InvalidInput("a valid email is required")
	}
	if err := validator.Validate(req); err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	u, err := s.users.Upsert(ctx, &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		PhotoURL:  req.PhotoURL,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}

	s.logger.InfoContext(ctx, "user upserted",
		slog.String("user_id", u.ID),
		slog.String("role", u.Role),
	)
	return u, token, nil
}
