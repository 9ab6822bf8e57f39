package auth

import (
	"context"

	"roombooking/internal/domain"
	"roombooking/internal/pkg/jwt"
)

// UserRepositoryInterface lists only the methods the auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ClaimAdmin(ctx context.Context, userID int64) (bool, error)
	UpdateRole(ctx context.Context, userID int64, role domain.UserRole) error
}

// Transactor runs fn in one transaction; repositories join it through ctx.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type TokenService interface {
	GenerateToken(userID int64, email, role string) (string, error)
	ValidateToken(token string) (*jwt.Claims, error)
}
