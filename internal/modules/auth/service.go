package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"roombooking/internal/domain"
	"roombooking/internal/policy"
	"roombooking/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service contains all business logic for authentication
type Service struct {
	users      UserRepositoryInterface
	tx         Transactor
	jwt        TokenService
	bcryptCost int

	// hash compared against when the email is unknown, so both login
	// failures cost one bcrypt comparison
	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(users UserRepositoryInterface, tx Transactor, jwt TokenService, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tx:         tx,
		jwt:        jwt,
		bcryptCost: bcryptCost,
	}
}

// Register creates a user. The first account ever registered becomes Admin:
// the insert and the admin claim share one transaction, and the claim is a
// singleton row, so concurrent first registrations yield exactly one Admin.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, string, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrEmailAlreadyExists
			}
			return err
		}

		claimed, err := s.users.ClaimAdmin(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("claim admin: %w", err)
		}
		if !claimed {
			return nil
		}
		user.Role = domain.RoleAdmin
		return s.users.UpdateRole(ctx, user.ID, domain.RoleAdmin)
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("user_registered user_id=%d role=%s", user.ID, user.Role)

	user.PasswordHash = ""
	return user, token, nil
}

// Login never tells the caller whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Verify checks the token signature and expiry only. The returned principal
// carries the role from issuance time, which may lag the stored role for at
// most the token lifetime.
func (s *Service) Verify(token string) (policy.Principal, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return policy.Principal{}, ErrUnauthorized
	}
	role := domain.UserRole(claims.Role)
	if !role.Valid() {
		return policy.Principal{}, ErrUnauthorized
	}
	return policy.Principal{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  role,
	}, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.bcryptCost)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
