package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatesweb/emlak-directory/internal/auth"
	"github.com/gatesweb/emlak-directory/internal/entity"
	"github.com/gatesweb/emlak-directory/internal/repository"
)

var (
	// ErrEmailAlreadyExists signals a registration attempt with a taken email.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidRole rejects role values outside the known set.
	ErrInvalidRole = errors.New("role must be user or admin")
)

// AuthService coordinates credential validation and token issuance.
type AuthService struct {
	users repository.UsersRepository
	jwt   *auth.JWTManager
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UsersRepository, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{users: users, jwt: jwtManager}
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", errors.New("invalid credentials")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token, err := s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return "", err
	}

	return token, nil
}

// Register creates a user with the default role and returns a JWT.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user, err := s.users.Create(ctx, email, string(hash), "user")
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return "", ErrEmailAlreadyExists
		}
		return "", err
	}

	return s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
}

// Users returns every registered user, newest first.
func (s *AuthService) Users(ctx context.Context) ([]entity.User, error) {
	return s.users.List(ctx)
}

// User fetches a single user by identifier.
func (s *AuthService) User(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateUser patches the given attributes; nil fields stay untouched. A new
// password is hashed before it reaches the repository.
func (s *AuthService) UpdateUser(ctx context.Context, id uuid.UUID, email, password, role *string) (*entity.User, error) {
	if role != nil && *role != "user" && *role != "admin" {
		return nil, ErrInvalidRole
	}

	var passwordHash *string
	if password != nil {
		if *password == "" {
			return nil, errors.New("password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		passwordHash = &hashed
	}

	user, err := s.users.Update(ctx, id, email, passwordHash, role)
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user account.
func (s *AuthService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}
