package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// RepositoryAuthService authenticates against UserRepository with bcrypt hashes.
type RepositoryAuthService struct {
	users UserRepository
}

func NewRepositoryAuthService(users UserRepository) *RepositoryAuthService {
	return &RepositoryAuthService{users: users}
}

// Authenticate checks the password of the account registered under email.
// Inactive accounts are rejected after the password check so that the error does
// not reveal whether an email exists.
func (s *RepositoryAuthService) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) || (err == nil && u == nil) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return User{}, ErrInactiveUser
	}
	return u.principal(), nil
}

// Register creates a regular user account.
func (s *RepositoryAuthService) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" {
		return User{}, fieldError("username", "This field may not be blank.")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return User{}, fieldError("email", "Enter a valid email address.")
	}
	if len(in.Password) < minPasswordLength {
		return User{}, fieldError("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}

	if existing, err := s.users.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return User{}, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	id, err := s.users.Create(ctx, NewUser{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         RoleUser,
	})
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Email: in.Email, Username: in.Username, Role: RoleUser}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
